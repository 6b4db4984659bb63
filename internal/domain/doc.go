// Package domain contains the core entities of the flashcard engine: the
// content a learner submits, the generation session that tracks turning it
// into candidate cards, the analysis derived from it, and the reviewable
// cards that the spaced repetition scheduler governs afterwards.
//
// Types here carry no infrastructure concerns. Persistence, transport and
// model access live behind the ports declared by the packages that use them.
package domain
