package scenario

// teamPool enumerates the team ids known to resolve in the target
// environment, spanning the leagues the content API serves:
//
//	1-14    domestic football, first division
//	20-27   domestic football, second division (15-19 were merged clubs and
//	        return 404)
//	40-45   basketball
//	60-63   ice hockey (64+ not yet migrated)
//
// Keep this in sync with the seed data; an id outside the pool skews the
// failure columns with expected 404s.
var teamPool = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14,
	20, 21, 22, 23, 24, 25, 26, 27,
	40, 41, 42, 43, 44, 45,
	60, 61, 62, 63,
}

// TeamPool returns a copy of the valid team identifiers.
func TeamPool() []int {
	teams := make([]int, len(teamPool))
	copy(teams, teamPool)
	return teams
}
