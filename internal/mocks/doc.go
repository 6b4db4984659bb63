// Package mocks holds hand-written fakes for the generation and auth
// seams, shared by tests across packages.
//
//	gen := mocks.NewMockGenerator(map[generation.TaskType]string{
//	    generation.TaskTypeFlashcards: `[{"question":"Q?","answer":"A"}]`,
//	})
//
// Package-local interfaces are mocked next to their tests with testify/mock.
package mocks
