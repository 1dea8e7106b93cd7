package metrics

import "time"

// NoopMetrics is used when metrics are disabled; every method does nothing.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAuthAttempt(provider string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)                      {}
func (n *NoopMetrics) RecordUserCreated(provider string)                                      {}
func (n *NoopMetrics) RecordTokenIssued(provider string)                                      {}
func (n *NoopMetrics) RecordTokenValidation(result string)                                    {}
func (n *NoopMetrics) SetActiveUsersCount(provider string, count int)                         {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                              {}
