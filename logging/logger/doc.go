// Package logger wraps logrus with context-aware helpers that attach the
// trace id carried by the context to every entry.
package logger
