package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions audits only the listed actions.
// If neither this nor WithCategories is used, every action is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithCategories audits only actions that belong to the listed categories,
// for example CategoryBilling to follow money movements alone.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		want := make(map[string]bool, len(categories))
		for _, c := range categories {
			want[c] = true
		}
		e.enabled = make(map[string]bool)
		for action, category := range actionCategories {
			if want[category] {
				e.enabled[action] = true
			}
		}
	}
}

// WithDisabledActions skips the listed actions. It narrows whatever set
// earlier options selected.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool, len(actionCategories))
			for action := range actionCategories {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// actionCategories maps every known action to the category it is filed under.
var actionCategories = map[string]string{
	ActionGroupCreated:   CategoryCatalog,
	ActionGroupUpdated:   CategoryCatalog,
	ActionGroupDeleted:   CategoryCatalog,
	ActionPackageCreated: CategoryCatalog,
	ActionPackageUpdated: CategoryCatalog,
	ActionPackageDeleted: CategoryCatalog,

	ActionCustomerCreated:  CategoryCustomer,
	ActionCustomerUpdated:  CategoryCustomer,
	ActionCustomerDeleted:  CategoryCustomer,
	ActionCapacityExceeded: CategoryCustomer,

	ActionPaymentsGenerated: CategoryBilling,
	ActionPaymentPaid:       CategoryBilling,
	ActionPaymentUnpaid:     CategoryBilling,

	ActionReminderRecorded: CategoryOutreach,

	ActionDocumentImported: CategoryData,
	ActionSaveFailed:       CategoryData,
}
