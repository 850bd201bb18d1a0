package reports

import (
	"venue-manager/models"
)

// Categories returns every enumerated value with its display label.
func Categories() models.Categories {
	roles := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		roles = append(roles, string(r))
	}
	statuses := make([]string, 0, len(models.ReceiptStatuses))
	for _, s := range models.ReceiptStatuses {
		statuses = append(statuses, string(s))
	}

	return models.Categories{
		CostCategories:  options(models.CostCategories, models.Label),
		RevenueSources:  options(models.RevenueSources, models.Label),
		UserRoles:       options(roles, models.Label),
		ReceiptStatuses: options(statuses, models.Label),
		StaffPositions:  options(models.StaffPositions, func(s string) string { return s }),
	}
}

func options(values []string, label func(string) string) []models.Option {
	out := make([]models.Option, 0, len(values))
	for _, v := range values {
		out = append(out, models.Option{Value: v, Label: label(v)})
	}
	return out
}
