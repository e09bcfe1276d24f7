package w3g

// serviceAccountTag is the battle tag of the hosting bot account that shows up
// as an extra leaver in hosted games.
const serviceAccountTag = "FLO"

// assembleReplay folds the decoded pieces into a Replay.
// Metadata.SavingPlayerID is the last player seen leaving; see
// RecordingPlayerCandidate for the leave reason based guess.
func assembleReplay(header *ReplayHeader, l *lobby, s *streamParser) *Replay {
	return &Replay{
		Version: header.HeaderVersion,
		Header:  header,
		Metadata: ReplayMeta{
			SavingPlayerID:       s.lastLeaver,
			IsSavingPlayerHost:   l.isHost,
			GameName:             l.gameName,
			MapName:              l.mapName,
			GameCreatorBattleTag: l.creatorName,
		},
		GameSettings: l.settings,
		Slots:        l.slots,
		Players:      s.players,
		Chat:         s.chat,
		Actions:      s.actions,
	}
}

// RecordingPlayerCandidate guesses the recording player from leave reasons:
// the only player whose connection was closed by the local game, or, when
// several were, the first of them (by id) that is not the service account.
func (r *Replay) RecordingPlayerCandidate() (uint8, bool) {
	var candidates []uint8
	for _, id := range r.PlayerIDs() {
		if r.Players[id].LeaveReason == LeaveClosedByLocalGame {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	for _, id := range candidates {
		if r.Players[id].BattleTag != serviceAccountTag {
			return id, true
		}
	}
	return 0, false
}
