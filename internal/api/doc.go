// Package api exposes the flashcard engine over HTTP: content submission
// and session lookup, card approval, study reviews, tutoring, progress
// feedback and quizzes. Handlers decode and validate requests, call the
// services, and map their errors onto status codes and safe messages.
package api
