package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Resource Errors (VB001-VB019)
	// ============================================

	"VB001": {
		Category:   CategoryResource,
		Message:    "Unresolved value converter",
		Detail:     "An expression applies a value converter that is not registered.",
		Suggestion: "Register the converter with App.RegisterConverter before binding.",
	},
	"VB002": {
		Category:   CategoryResource,
		Message:    "Unresolved binding behavior",
		Detail:     "An expression applies a binding behavior that is not registered.",
		Suggestion: "Register the behavior with App.RegisterBehavior, or check the name for typos.",
	},
	"VB003": {
		Category:   CategoryResource,
		Message:    "No signaler registered",
		Detail:     "A value converter declares signal names but the registry has no signaler to subscribe to.",
		Suggestion: "Call Registry.RegisterSignaler, or create bindings through an App.",
	},

	// ============================================
	// Binding Errors (VB020-VB039)
	// ============================================

	"VB020": {
		Category:   CategoryBinding,
		Message:    "Binding behavior already applied",
		Detail:     "The same binding behavior was applied twice to one binding. The binding stays bound.",
		Suggestion: "Remove the duplicate & behavior from the expression.",
	},
	"VB021": {
		Category:   CategoryBinding,
		Message:    "Invalid binding mode",
		Detail:     "The binding does not support the requested mode. Let bindings only support to-view.",
		Suggestion: "Drop the mode behavior, or bind with a property binding instead.",
	},
	"VB022": {
		Category:   CategoryBinding,
		Message:    "Binding is not bound",
		Detail:     "The operation needs a scope, which a binding only has between Bind and Unbind.",
		Suggestion: "Bind the binding, or its view, first.",
	},
	"VB023": {
		Category: CategoryBinding,
		Message:  "Unsupported operation",
		Detail:   "The binding kind or operator does not support this operation.",
	},

	// ============================================
	// Expression Errors (VB040-VB059)
	// ============================================

	"VB040": {
		Category:   CategoryExpression,
		Message:    "Not a function",
		Detail:     "A call target resolved to a value that cannot be called. Calls on null or undefined only fail in event handlers.",
		Suggestion: "Check that the method exists on the binding context.",
	},
	"VB041": {
		Category: CategoryExpression,
		Message:  "Value is not iterable",
		Detail:   "A for-of source is not an array, map, set, number or null.",
	},
	"VB042": {
		Category:   CategoryExpression,
		Message:    "Invalid expression tree",
		Detail:     "The JSON document does not describe a valid expression tree.",
		Suggestion: "Every node needs a \"type\" field naming an AST node, e.g. {\"type\":\"AccessScope\",\"name\":\"a\"}.",
	},

	// ============================================
	// Lifecycle Errors (VB060-VB079)
	// ============================================

	"VB060": {
		Category:   CategoryLifecycle,
		Message:    "App already started",
		Detail:     "Views can only be mounted before Start, and Start runs once until Stop.",
		Suggestion: "Mount every view before calling Start.",
	},

	// ============================================
	// Storage Errors (VB080-VB099)
	// ============================================

	"VB080": {
		Category:   CategoryStorage,
		Message:    "Snapshot not found",
		Detail:     "No snapshot with this id exists in the configured store.",
		Suggestion: "Run `vbind snapshot list` to see stored snapshots.",
	},
	"VB081": {
		Category: CategoryStorage,
		Message:  "Invalid scope document",
		Detail:   "A scope document must be a YAML or JSON mapping at the top level.",
	},
	"VB082": {
		Category:   CategoryStorage,
		Message:    "Unknown store kind",
		Detail:     "store.kind must be \"disk\" or \"s3\".",
		Suggestion: "Set store.kind in vbind.yaml or VBIND_STORE_KIND.",
	},

	// ============================================
	// Config Errors (VB100-VB119)
	// ============================================

	"VB100": {
		Category:   CategoryConfig,
		Message:    "Config file invalid",
		Detail:     "vbind.yaml could not be parsed.",
		Suggestion: "Check the YAML syntax.",
	},
	"VB101": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be debug, info, warn, error or an integer.",
	},

	// ============================================
	// CLI Errors (VB120-VB139)
	// ============================================

	"VB120": {
		Category: CategoryCLI,
		Message:  "Expression file not readable",
		Detail:   "The expression file given to the command could not be read.",
	},
	"VB121": {
		Category:   CategoryCLI,
		Message:    "Server failed",
		Detail:     "The inspector server stopped with an error.",
		Suggestion: "Check that serve.addr is free.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
