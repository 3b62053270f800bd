package tui

import "github.com/jask/recondesk/internal/domain"

// cycleAccount steps through ["", accounts...] from cur by delta, skipping
// the account with id exclude.
func cycleAccount(accounts []domain.Account, cur, exclude string, delta int) string {
	choices := []string{""}
	for _, acct := range accounts {
		if acct.ID != exclude {
			choices = append(choices, acct.ID)
		}
	}
	at := 0
	for i, id := range choices {
		if id == cur {
			at = i
			break
		}
	}
	n := len(choices)
	return choices[((at+delta)%n+n)%n]
}

func (a *App) pickerLabel(id, none string) string {
	if id == "" {
		return none
	}
	return a.accountName(id)
}
