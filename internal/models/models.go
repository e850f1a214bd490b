package models

// UserState is an operator's conversation state between Telegram updates.
type UserState struct {
	UserID      int64
	CurrentStep string
	TempData    map[string]interface{}
}

func (s *UserState) GetString(key string) string {
	if s.TempData == nil {
		return ""
	}
	val, ok := s.TempData[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// PendingSlot returns the (date, slot) selection an operator opened the
// client picker for. ok is false when nothing is pending.
func (s *UserState) PendingSlot() (date, timeSlot string, ok bool) {
	if s == nil || s.CurrentStep != StatePickClient {
		return "", "", false
	}
	date = s.GetString("date")
	timeSlot = s.GetString("time_slot")
	return date, timeSlot, date != "" && timeSlot != ""
}
