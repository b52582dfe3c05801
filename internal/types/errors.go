package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classe les erreurs remontées jusqu'à la commande
type ErrorType int

const (
	ErrTypeGeneric ErrorType = iota
	ErrTypeConfiguration
	ErrTypeAuthentication
	ErrTypeTransfer
	ErrTypeCleanup
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfiguration:
		return "configuration"
	case ErrTypeAuthentication:
		return "authentication"
	case ErrTypeTransfer:
		return "transfer"
	case ErrTypeCleanup:
		return "cleanup"
	default:
		return "generic"
	}
}

// TransferStep identifie l'étape d'un transfert
type TransferStep string

const (
	StepPull   TransferStep = "pull"
	StepTag    TransferStep = "tag"
	StepPush   TransferStep = "push"
	StepRemove TransferStep = "remove"
)

// MirrorError représente une erreur avec contexte
type MirrorError struct {
	Type        ErrorType
	Message     string
	Items       []string    // Éléments manquants pour les erreurs de configuration
	Entry       *ImageEntry // Entrée concernée pour les erreurs de transfert
	Step        TransferStep
	Destination string
	Cause       error
}

func (e *MirrorError) Error() string {
	msg := e.Message
	if len(e.Items) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Items, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *MirrorError) Unwrap() error {
	return e.Cause
}

// NewError crée une nouvelle erreur typée
func NewError(errType ErrorType, message string, cause error) error {
	return &MirrorError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError signale des paramètres manquants ou un fichier absent
func NewConfigurationError(message string, items []string, cause error) error {
	return &MirrorError{
		Type:    ErrTypeConfiguration,
		Message: message,
		Items:   items,
		Cause:   cause,
	}
}

// NewAuthenticationError signale un login refusé
func NewAuthenticationError(registry string, cause error) error {
	return &MirrorError{
		Type:    ErrTypeAuthentication,
		Message: fmt.Sprintf("login to %s failed", registry),
		Cause:   cause,
	}
}

// NewTransferError signale l'échec d'un pull, tag ou push
func NewTransferError(step TransferStep, entry ImageEntry, destination string, cause error) error {
	var msg string
	switch step {
	case StepPull:
		msg = fmt.Sprintf("pull of %s failed (line %d)", entry.Source, entry.Line)
	default:
		msg = fmt.Sprintf("%s of %s -> %s failed (line %d)", step, entry.Source, destination, entry.Line)
	}

	return &MirrorError{
		Type:        ErrTypeTransfer,
		Message:     msg,
		Entry:       &entry,
		Step:        step,
		Destination: destination,
		Cause:       cause,
	}
}

// NewCleanupWarning signale un échec de suppression d'image locale
func NewCleanupWarning(ref string, cause error) error {
	return &MirrorError{
		Type:    ErrTypeCleanup,
		Message: fmt.Sprintf("failed to remove local image %s", ref),
		Step:    StepRemove,
		Cause:   cause,
	}
}

// IsErrorType indique si err contient une MirrorError du type donné
func IsErrorType(err error, errType ErrorType) bool {
	var mErr *MirrorError
	if errors.As(err, &mErr) {
		return mErr.Type == errType
	}
	return false
}
