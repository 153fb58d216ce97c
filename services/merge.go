package services

import "ipo-checker/models"

// Merge records html as the result for id under company and returns the
// updated set. The company's group moves to the front; an id the group
// already holds is not added twice. set itself is left untouched.
func Merge(set models.ResultSet, company, id, html string) models.ResultSet {
	group := models.CompanyResults{Company: company}
	rest := make(models.ResultSet, 0, len(set)+1)

	found := false
	for _, g := range set {
		if !found && g.Company == company {
			group.Results = append([]models.Result(nil), g.Results...)
			found = true
			continue
		}
		rest = append(rest, g)
	}

	if !hasID(group.Results, id) {
		group.Results = append(group.Results, models.Result{ID: id, HTML: html})
	}

	return append(models.ResultSet{group}, rest...)
}

func hasID(results []models.Result, id string) bool {
	for _, r := range results {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Count returns the number of results across every company.
func Count(set models.ResultSet) int {
	n := 0
	for _, g := range set {
		n += len(g.Results)
	}
	return n
}
