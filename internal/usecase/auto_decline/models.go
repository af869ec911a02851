package auto_decline

// Result итог одного прохода sweeper-а
type Result struct {
	// CandidateCount сколько просроченных броней нашлось
	CandidateCount int `json:"candidate_count"`

	// DeclinedCount сколько броней отклонено и возвращено
	DeclinedCount int `json:"declined_count"`

	// SkippedCount сколько броней успело измениться между выборкой и отменой
	SkippedCount int `json:"skipped_count"`

	// FailedIDs брони, у которых не прошел возврат или отмена;
	// они остаются в pending и будут подобраны следующим проходом
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}
