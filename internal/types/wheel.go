package types

import "time"

// SpinRecord は1回のスピン結果（履歴として保存される）
type SpinRecord struct {
	ID            string    `json:"id" db:"id"`
	SegmentIndex  int       `json:"segment_index" db:"segment_index"`
	Label         string    `json:"label" db:"label"`
	Color         string    `json:"color" db:"color"`
	TerminalAngle float64   `json:"terminal_angle" db:"terminal_angle"`
	TotalRotation float64   `json:"total_rotation" db:"total_rotation"`
	DurationMS    int64     `json:"duration_ms" db:"duration_ms"`
	SpunAt        time.Time `json:"spun_at" db:"spun_at"`
}

// WheelStatus はオーバーレイに返すホイールの状態
type WheelStatus struct {
	State        string      `json:"state"`
	Message      string      `json:"message"`
	CanSpin      bool        `json:"can_spin"`
	Angle        float64     `json:"angle"`
	LastSpinDate string      `json:"last_spin_date,omitempty"`
	LastResult   *SpinRecord `json:"last_result,omitempty"`
}

// SpinFrame is one animation tick pushed to overlay clients.
type SpinFrame struct {
	Angle     float64 `json:"angle"`
	Fraction  float64 `json:"fraction"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// SpinStarted announces a new spin plan.
type SpinStarted struct {
	StartAngle    float64   `json:"start_angle"`
	TotalRotation float64   `json:"total_rotation"`
	DurationMS    int64     `json:"duration_ms"`
	StartedAt     time.Time `json:"started_at"`
}
