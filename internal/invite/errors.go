package invite

import "fmt"

// Conflict reasons, used as metric labels and carried on ConflictError.
const (
	ReasonEmailExists   = "email_exists"
	ReasonInvitePending = "invite_pending"
	ReasonWriteRace     = "write_race"
)

// ConflictError signals an email or invite context collision. The request
// cannot succeed by retrying identically.
type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ForbiddenError signals that the sender lacks authorisation in the target
// service.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// PreconditionFailedError signals that the invitee already holds a role in
// the target service.
type PreconditionFailedError struct {
	Message string
}

func (e *PreconditionFailedError) Error() string { return e.Message }

// ValidationError signals malformed caller input, such as an invalid email.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InternalError signals a configuration defect, such as a role name outside
// the operator-controlled vocabulary.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return e.Message }

func conflictingEmail(email string) error {
	return &ConflictError{
		Reason:  ReasonEmailExists,
		Message: fmt.Sprintf("email [%s] already exists", email),
	}
}

func conflictingInvite(email string) error {
	return &ConflictError{
		Reason:  ReasonInvitePending,
		Message: fmt.Sprintf("invite with email [%s] already exists", email),
	}
}

func raceConflict(email string) error {
	return &ConflictError{
		Reason:  ReasonWriteRace,
		Message: fmt.Sprintf("invite with email [%s] already exists", email),
	}
}

func forbiddenSender(senderExternalID, serviceExternalID string) error {
	return &ForbiddenError{
		Message: fmt.Sprintf("user [%s] not authorised to invite users to service [%s]", senderExternalID, serviceExternalID),
	}
}

func notPublicSector(email string) error {
	return &ForbiddenError{
		Message: fmt.Sprintf("email [%s] is not a public sector email", email),
	}
}

func userAlreadyInService(email, serviceExternalID string) error {
	return &PreconditionFailedError{
		Message: fmt.Sprintf("user [%s] already in service [%s]", email, serviceExternalID),
	}
}

func invalidEmail(address string) error {
	return &ValidationError{
		Message: fmt.Sprintf("invalid email address [%s]", address),
	}
}

func unknownRole(name string) error {
	return &InternalError{
		Message: fmt.Sprintf("role [%s] is not a valid role for creating an invite", name),
	}
}
