package schemas

type CorrectionRequest struct {
	Assignments map[int]int64 `json:"assignments" validate:"dive,keys,gt=0,endkeys,gt=0"`
	Discard     []int         `json:"discard" validate:"dive,gt=0"`
}
