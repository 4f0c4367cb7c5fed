package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogComponent represents different system components for filtering
type LogComponent string

const (
	ComponentIdentity      LogComponent = "identity"
	ComponentChain         LogComponent = "chain"
	ComponentAuthorization LogComponent = "authorization"
	ComponentAssembler     LogComponent = "assembler"
	ComponentTracker       LogComponent = "tracker"
	ComponentWorkflow      LogComponent = "workflow"
	ComponentSecrets       LogComponent = "secrets"
	ComponentConfig        LogComponent = "config"
	ComponentServer        LogComponent = "server"
)

// LogContext holds structured context information for logs
type LogContext struct {
	CorrelationID string
	Component     LogComponent
	Operation     string
	Duration      time.Duration
	Fields        map[string]interface{}
}

// StructuredLogger provides enhanced logging with structured context
type StructuredLogger struct {
	logger    *zap.Logger
	component LogComponent
	context   LogContext
}

// NewStructuredLogger creates a new structured logger for a specific component
func NewStructuredLogger(component LogComponent) *StructuredLogger {
	return &StructuredLogger{
		logger:    L(),
		component: component,
		context:   LogContext{Component: component, Fields: make(map[string]interface{})},
	}
}

// WithField adds a field to the log context
func (sl *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Fields[key] = value
	return newLogger
}

// WithFields adds multiple fields to the log context
func (sl *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	newLogger := sl.clone()
	for k, v := range fields {
		newLogger.context.Fields[k] = v
	}
	return newLogger
}

// WithCorrelationID adds correlation ID to the log context
func (sl *StructuredLogger) WithCorrelationID(correlationID string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.CorrelationID = correlationID
	return newLogger
}

// WithOperation adds operation name to the log context
func (sl *StructuredLogger) WithOperation(operation string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Operation = operation
	return newLogger
}

// WithDuration adds duration to the log context
func (sl *StructuredLogger) WithDuration(duration time.Duration) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Duration = duration
	return newLogger
}

func (sl *StructuredLogger) clone() *StructuredLogger {
	newFields := make(map[string]interface{}, len(sl.context.Fields))
	for k, v := range sl.context.Fields {
		newFields[k] = v
	}

	return &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context: LogContext{
			CorrelationID: sl.context.CorrelationID,
			Component:     sl.context.Component,
			Operation:     sl.context.Operation,
			Duration:      sl.context.Duration,
			Fields:        newFields,
		},
	}
}

func (sl *StructuredLogger) buildFields() []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(sl.context.Fields)+4)

	if sl.context.Component != "" {
		fields = append(fields, zap.String("component", string(sl.context.Component)))
	}
	if sl.context.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", sl.context.CorrelationID))
	}
	if sl.context.Operation != "" {
		fields = append(fields, zap.String("operation", sl.context.Operation))
	}
	if sl.context.Duration > 0 {
		fields = append(fields, zap.Duration("duration", sl.context.Duration))
	}

	for key, value := range sl.context.Fields {
		fields = append(fields, zap.Any(key, value))
	}

	return fields
}

// Debug logs a debug message with structured context
func (sl *StructuredLogger) Debug(msg string) {
	sl.logger.Debug(msg, sl.buildFields()...)
}

// Info logs an info message with structured context
func (sl *StructuredLogger) Info(msg string) {
	sl.logger.Info(msg, sl.buildFields()...)
}

// Warn logs a warning message with structured context
func (sl *StructuredLogger) Warn(msg string) {
	sl.logger.Warn(msg, sl.buildFields()...)
}

// Error logs an error message with structured context
func (sl *StructuredLogger) Error(msg string, err error) {
	fields := sl.buildFields()
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	sl.logger.Error(msg, fields...)
}

// LogOperation logs the start and end of an operation with timing
func (sl *StructuredLogger) LogOperation(operation string, fn func() error) error {
	start := time.Now()
	opLogger := sl.WithOperation(operation)

	opLogger.Debug("Operation started")

	err := fn()
	duration := time.Since(start)

	finalLogger := opLogger.WithDuration(duration)

	if err != nil {
		finalLogger.Error("Operation failed", err)
	} else {
		finalLogger.Info("Operation completed")
	}

	return err
}

// LogHTTPRequest logs HTTP request details
func (sl *StructuredLogger) LogHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	sl.WithFields(map[string]interface{}{
		"http_method":   method,
		"http_path":     path,
		"http_status":   statusCode,
		"response_time": duration,
	}).WithDuration(duration).Info("HTTP request processed")
}

// LogChainQuery logs a read against the ledger node
func (sl *StructuredLogger) LogChainQuery(method, address string, duration time.Duration, err error) {
	l := sl.WithFields(map[string]interface{}{
		"rpc_method": method,
		"address":    address,
	}).WithDuration(duration)
	if err != nil {
		l.Error("Chain query failed", err)
		return
	}
	l.Debug("Chain query executed")
}

// LogDelegationEvent logs a delegation lifecycle transition
func (sl *StructuredLogger) LogDelegationEvent(owner, txHash, status string, metadata map[string]interface{}) {
	fields := map[string]interface{}{
		"owner":   owner,
		"tx_hash": txHash,
		"status":  status,
	}

	for k, v := range metadata {
		fields[k] = v
	}

	sl.WithFields(fields).Info("Delegation event occurred")
}

// Timer helps measure operation duration
type Timer struct {
	start  time.Time
	logger *StructuredLogger
	name   string
}

// NewTimer creates a new timer for measuring operation duration
func (sl *StructuredLogger) NewTimer(operationName string) *Timer {
	return &Timer{
		start:  time.Now(),
		logger: sl,
		name:   operationName,
	}
}

// Stop stops the timer and logs the duration
func (t *Timer) Stop() {
	duration := time.Since(t.start)
	t.logger.WithOperation(t.name).WithDuration(duration).Debug("Operation timing")
}

// StopWithResult stops the timer and logs the result
func (t *Timer) StopWithResult(success bool, err error) {
	duration := time.Since(t.start)
	logger := t.logger.WithOperation(t.name).WithDuration(duration).WithField("success", success)

	if success {
		logger.Info(fmt.Sprintf("%s completed successfully", t.name))
	} else {
		logger.Error(fmt.Sprintf("%s failed", t.name), err)
	}
}
