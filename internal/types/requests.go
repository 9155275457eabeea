package types

import "github.com/go-playground/validator/v10"

// ResponseEntry is a single submitted answer within a SubmitResponsesRequest.
type ResponseEntry struct {
	ItemID string `json:"item_id" validate:"required"`
	Value  int    `json:"value" validate:"gte=0,lte=4"`
}

// SubmitResponsesRequest carries a batch of answers for an active run.
// Resubmitting an item overwrites the previous answer (last write wins).
type SubmitResponsesRequest struct {
	Responses []ResponseEntry `json:"responses" validate:"required,min=1,dive"`
}

// Validate validates the SubmitResponsesRequest using the validator.
func (r *SubmitResponsesRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
