package game

// Operation names a client action. Each operation selects the projection
// returned after it runs.
type Operation string

const (
	OpInitializeSession    Operation = "initialize_session"
	OpBet                  Operation = "bet"
	OpRetakeBet            Operation = "retake_bet"
	OpHandleStart          Operation = "handle_start_action"
	OpCreateDeck           Operation = "create_deck"
	OpStartGame            Operation = "start_game"
	OpInsurance            Operation = "ins_request"
	OpHit                  Operation = "hit"
	OpDouble               Operation = "double_request"
	OpRewards              Operation = "rewards"
	OpStandAndRewards      Operation = "stand_and_rewards"
	OpSplit                Operation = "split_request"
	OpMarkResolved         Operation = "add_to_players_list_by_stand"
	OpActivateNext         Operation = "add_split_player_to_game"
	OpDrainPending         Operation = "add_player_from_players"
	OpSplitHit             Operation = "split_hit"
	OpSplitDouble          Operation = "split_double_request"
	OpSplitStandAndRewards Operation = "split_stand_and_rewards"
	OpSetRestart           Operation = "set_restart"
	OpForceRestart         Operation = "force_restart"
	OpRecover              Operation = "recover_game_state"
	OpClear                Operation = "clear_game_state"
)

// Operations lists every client action in protocol order.
var Operations = []Operation{
	OpInitializeSession,
	OpBet,
	OpRetakeBet,
	OpHandleStart,
	OpCreateDeck,
	OpStartGame,
	OpInsurance,
	OpHit,
	OpDouble,
	OpRewards,
	OpStandAndRewards,
	OpSplit,
	OpMarkResolved,
	OpActivateNext,
	OpDrainPending,
	OpSplitHit,
	OpSplitDouble,
	OpSplitStandAndRewards,
	OpSetRestart,
	OpForceRestart,
	OpRecover,
	OpClear,
}

// ParseOperation resolves a wire name.
func ParseOperation(name string) (Operation, bool) {
	for _, op := range Operations {
		if string(op) == name {
			return op, true
		}
	}
	return "", false
}

func (op Operation) String() string { return string(op) }
