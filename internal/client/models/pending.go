package models

import "fmt"

type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// PendingAction is an offline discovery mutation awaiting replay.
// Add and Update carry Discovery; Delete carries UUID.
type PendingAction struct {
	Type      ActionType `json:"type"`
	Discovery *Discovery `json:"discovery,omitempty"`
	UUID      string     `json:"uuid,omitempty"`
}

func AddAction(d Discovery) PendingAction {
	return PendingAction{Type: ActionAdd, Discovery: &d}
}

func UpdateAction(d Discovery) PendingAction {
	return PendingAction{Type: ActionUpdate, Discovery: &d}
}

func DeleteAction(uuid string) PendingAction {
	return PendingAction{Type: ActionDelete, UUID: uuid}
}

// TargetUUID is the uuid of the discovery the action applies to.
func (a PendingAction) TargetUUID() string {
	if a.Discovery != nil {
		return a.Discovery.UUID
	}
	return a.UUID
}

func (a PendingAction) Validate() error {
	switch a.Type {
	case ActionAdd, ActionUpdate:
		if a.Discovery == nil || a.Discovery.UUID == "" {
			return malformed("discovery", "required for %s", a.Type)
		}
	case ActionDelete:
		if a.UUID == "" {
			return malformed("uuid", "required for delete")
		}
	default:
		return fmt.Errorf("%w: type: unknown action %q", ErrMalformedRecord, a.Type)
	}
	return nil
}
