package uevent

import "encoding/json"

// ActionType classifies a kobject lifecycle event. The set is closed:
// it mirrors kobject_action in include/linux/kobject.h, and any token
// outside it is a decode failure, never a default.
type ActionType int

const (
	Add     ActionType = iota // a new kobject was added
	Remove                    // the kobject was removed
	Change                    // the kobject changed internal state (details in Env)
	Move                      // the kobject was reparented; Env carries DEVPATH_OLD
	Online                    // the device came back online
	Offline                   // the device is ready to be hot-removed
	Bind                      // the device was bound to a driver
	Unbind                    // the device is no longer bound to its driver
)

var actionNames = map[ActionType]string{
	Add:     "add",
	Remove:  "remove",
	Change:  "change",
	Move:    "move",
	Online:  "online",
	Offline: "offline",
	Bind:    "bind",
	Unbind:  "unbind",
}

var actionFromName = map[string]ActionType{
	"add":     Add,
	"remove":  Remove,
	"change":  Change,
	"move":    Move,
	"online":  Online,
	"offline": Offline,
	"bind":    Bind,
	"unbind":  Unbind,
}

// ParseAction maps an ACTION token to its ActionType. Matching is exact
// and case-sensitive: no trimming, no aliases. Unknown tokens return an
// *UnexpectedActionError carrying the token verbatim.
func ParseAction(s string) (ActionType, error) {
	if a, ok := actionFromName[s]; ok {
		return a, nil
	}
	return 0, &UnexpectedActionError{Token: s}
}

func (a ActionType) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

func (a ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
