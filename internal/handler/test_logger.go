package handler

import "pdf-viewer-plus/internal/domain"

// MockHandlerLogger discards logs. Used by handler package tests.
type MockHandlerLogger struct {
	errors int
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{}) {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.errors++
}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  {}

var _ domain.Logger = (*MockHandlerLogger)(nil)
