package model

import "strings"

// Foul penalty bounds under standard rules
const (
	MinFoulPenalty = 4
	MaxFoulPenalty = 7
)

// Ball is a named object ball and its value
type Ball struct {
	Name  string
	Value int
}

// Balls lists the object balls in value order
var Balls = []Ball{
	{Name: "red", Value: 1},
	{Name: "yellow", Value: 2},
	{Name: "green", Value: 3},
	{Name: "brown", Value: 4},
	{Name: "blue", Value: 5},
	{Name: "pink", Value: 6},
	{Name: "black", Value: 7},
}

// BallValue returns the value of the named ball (case insensitive)
func BallValue(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range Balls {
		if b.Name == name {
			return b.Value, nil
		}
	}
	return 0, ErrUnknownBall
}

// FoulPenalty returns the penalty for a foul involving the named ball.
// Fouls on balls worth less than four still cost the minimum.
func FoulPenalty(ball string) (int, error) {
	if strings.TrimSpace(ball) == "" {
		return -MinFoulPenalty, nil
	}
	v, err := BallValue(ball)
	if err != nil {
		return 0, err
	}
	return -max(v, MinFoulPenalty), nil
}
