package engine

import (
	"strconv"
	"strings"

	"github.com/mcoot/snookercounter/internal/model"
)

// AddPlayer appends a new player to the end of the rotation. The turn does not
// move.
func AddPlayer(m *model.Match, name string) (*model.Player, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrBlankName
	}

	m.Players = append(m.Players, model.Player{ID: mintPlayerID(m), Name: name})
	return &m.Players[len(m.Players)-1], nil
}

// RemovePlayer drops a player from the roster and re-anchors the turn pointer.
//
// Players before the current one shift the pointer back so the same player
// keeps the turn. Removing the current player passes the turn to their
// successor, who now occupies the same slot (wrapping to the first player when
// the last slot was removed).
func RemovePlayer(m *model.Match, id model.PlayerID) error {
	if err := Validate(m); err != nil {
		return err
	}
	idx := m.PlayerIndex(id)
	if idx < 0 {
		return model.ErrPlayerNotFound
	}
	if len(m.Players) == 1 {
		return model.ErrLastPlayer
	}

	m.Players = append(m.Players[:idx], m.Players[idx+1:]...)

	switch {
	case idx < m.CurrentPlayerIndex:
		m.CurrentPlayerIndex--
	case idx == m.CurrentPlayerIndex && m.CurrentPlayerIndex >= len(m.Players):
		m.CurrentPlayerIndex = 0
	}
	return nil
}

// RenamePlayer replaces a player's display name in place
func RenamePlayer(m *model.Match, id model.PlayerID, name string) error {
	if err := Validate(m); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrBlankName
	}
	p := m.GetPlayer(id)
	if p == nil {
		return model.ErrPlayerNotFound
	}
	p.Name = name
	return nil
}

// mintPlayerID hands out the next id from the match's sequence. The sequence
// only grows, so ids of removed players never come back.
func mintPlayerID(m *model.Match) model.PlayerID {
	for {
		m.NextPlayerSeq++
		id := model.PlayerID("p" + strconv.Itoa(m.NextPlayerSeq))
		if m.PlayerIndex(id) < 0 {
			return id
		}
	}
}
