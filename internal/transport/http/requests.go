package httptransport

import (
	"github.com/asaskevich/govalidator"

	dErrors "riskgate/pkg/domain-errors"
)

// StartAttemptRequest begins a new authentication attempt.
type StartAttemptRequest struct {
	Username string `json:"username" valid:"required"`
	Realm    string `json:"realm" valid:"required"`
}

// Validate checks required fields.
func (r *StartAttemptRequest) Validate() error {
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	return nil
}

// CallbackInput is one collected client value fed back into a suspended
// attempt.
type CallbackInput struct {
	Name  string `json:"name" valid:"required"`
	Value string `json:"value"`
}

// ResumeAttemptRequest resumes a suspended attempt with collected values.
type ResumeAttemptRequest struct {
	Callbacks []CallbackInput `json:"callbacks"`
}

// Validate checks the callback set.
func (r *ResumeAttemptRequest) Validate() error {
	if len(r.Callbacks) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "at least one callback is required")
	}
	for _, cb := range r.Callbacks {
		if _, err := govalidator.ValidateStruct(&cb); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
		}
	}
	return nil
}
