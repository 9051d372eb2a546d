package pkg

type Action string

const (
	ActionNewGame       Action = "New Game"
	ActionRefresh       Action = "Refresh"
	ActionFlip          Action = "Flip"
	ActionExit          Action = "Exit"
	ActionPromotePrompt Action = "Promote to?"
	ActionCancel        Action = "Cancel"
)

// Key is the keyboard shortcut bound to the action, or 0 when it has none.
func (a Action) Key() rune {
	switch a {
	case ActionNewGame:
		return 'n'
	case ActionRefresh:
		return 'r'
	case ActionFlip:
		return 'f'
	case ActionExit:
		return 'q'
	}
	return 0
}

// Label is the button text, with the shortcut when there is one.
func (a Action) Label() string {
	if k := a.Key(); k != 0 {
		return string(a) + " (" + string(k) + ")"
	}
	return string(a)
}

// MenuActions are the actions offered beside the board, in order.
var MenuActions = []Action{ActionNewGame, ActionRefresh, ActionFlip, ActionExit}
