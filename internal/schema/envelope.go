package schema

import "encoding/json"

// Envelope is the uniform invocation result shape. Exactly one of Data or
// Error is populated; callers discriminate on Success alone.
type Envelope struct {
	Success bool
	Data    any
	Error   string
}

// OK wraps a successful handler result.
func OK(data any) Envelope { return Envelope{Success: true, Data: data} }

// Fail wraps a failure message.
func Fail(msg string) Envelope { return Envelope{Success: false, Error: msg} }

// MarshalJSON emits only the branch selected by Success, so a success with a
// zero-value payload still carries an explicit "data" field.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}{true, e.Data})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, e.Error})
}

// UnmarshalJSON accepts both branches; used by clients and tests.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success bool   `json:"success"`
		Data    any    `json:"data"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Success = raw.Success
	e.Data = raw.Data
	e.Error = raw.Error
	return nil
}
