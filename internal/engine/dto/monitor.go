package dto

// StreamDataChallengeMonitor is the payload published to the monitor stream
// for each active challenge during a sweep.
type StreamDataChallengeMonitor struct {
	ChallengeID int64 `json:"challenge_id"`
}

// MonitorSweepResult reports the enqueue outcome for one challenge.
type MonitorSweepResult struct {
	ChallengeID int64  `json:"challenge_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
