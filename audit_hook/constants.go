package audithook

// Action constants for audit events.
const (
	// Catalog actions
	ActionGroupCreated   = "group.created"
	ActionGroupUpdated   = "group.updated"
	ActionGroupDeleted   = "group.deleted"
	ActionPackageCreated = "package.created"
	ActionPackageUpdated = "package.updated"
	ActionPackageDeleted = "package.deleted"

	// Customer actions
	ActionCustomerCreated  = "customer.created"
	ActionCustomerUpdated  = "customer.updated"
	ActionCustomerDeleted  = "customer.deleted"
	ActionCapacityExceeded = "capacity.exceeded"

	// Ledger actions
	ActionPaymentsGenerated = "payments.generated"
	ActionPaymentPaid       = "payment.paid"
	ActionPaymentUnpaid     = "payment.unpaid"

	// Reminder actions
	ActionReminderRecorded = "reminder.recorded"

	// Document actions
	ActionDocumentImported = "document.imported"
	ActionSaveFailed       = "document.save_failed"
)

// Resource constants for audit events.
const (
	ResourceGroup    = "group"
	ResourcePackage  = "package"
	ResourceCustomer = "customer"
	ResourcePayment  = "payment"
	ResourceReminder = "reminder"
	ResourceDocument = "document"
)

// Category constants for audit events.
const (
	CategoryCatalog  = "catalog"
	CategoryCustomer = "customer"
	CategoryBilling  = "billing"
	CategoryOutreach = "outreach"
	CategoryData     = "data"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
