package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Definition Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryDefinition,
		Message:  "Duplicate store name",
		Detail:   "A store with this name is already registered. Store names are unique per registry unless the registry merges duplicates.",
		DocURL:   "https://stateart.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryDefinition,
		Message:  "Invalid store name",
		Detail:   "Store names must be non-empty identifiers.",
		DocURL:   "https://stateart.dev/docs/errors/E002",
	},
	"E005": {
		Category: CategoryDefinition,
		Message:  "Accessor name collision",
		Detail:   "A getter or action shares its name with a state field or with another accessor.",
		DocURL:   "https://stateart.dev/docs/errors/E005",
	},

	// ============================================
	// Runtime Errors (E003-E039)
	// ============================================

	"E003": {
		Category: CategoryRuntime,
		Message:  "Unknown state path",
		Detail:   "The dotted path does not resolve to a field of the store state.",
		DocURL:   "https://stateart.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Write to reserved accessor path",
		Detail:   "The path names an action or getter of the store. Accessors cannot be assigned through a view.",
		DocURL:   "https://stateart.dev/docs/errors/E004",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Unknown action",
		Detail:   "The store has no action with this name.",
		DocURL:   "https://stateart.dev/docs/errors/E006",
	},
	"E007": {
		Category: CategoryRuntime,
		Message:  "Invalid phase transition",
		Detail:   "The state machine has no transition from the current phase to the requested one.",
		DocURL:   "https://stateart.dev/docs/errors/E007",
	},
	"E008": {
		Category: CategoryRuntime,
		Message:  "Store not found",
		Detail:   "No store with this name and state type is registered.",
		DocURL:   "https://stateart.dev/docs/errors/E008",
	},
	"E009": {
		Category: CategoryRuntime,
		Message:  "Type mismatch",
		Detail:   "The value cannot be assigned to the field at this path.",
		DocURL:   "https://stateart.dev/docs/errors/E009",
	},
	"E010": {
		Category: CategoryRuntime,
		Message:  "Hook called outside render",
		Detail:   "Use must be called while a component is rendering. Use Track for non-component consumers.",
		DocURL:   "https://stateart.dev/docs/errors/E010",
	},
	"E011": {
		Category: CategoryRuntime,
		Message:  "Unknown getter",
		Detail:   "The store has no getter with this name.",
		DocURL:   "https://stateart.dev/docs/errors/E011",
	},
	"E012": {
		Category: CategoryRuntime,
		Message:  "Hook order changed",
		Detail:   "Hooks must be called in the same order on every render of a component.",
		DocURL:   "https://stateart.dev/docs/errors/E012",
	},
	"E013": {
		Category: CategoryRuntime,
		Message:  "Action failed",
		Detail:   "The action returned an error. The state was left unchanged.",
		DocURL:   "https://stateart.dev/docs/errors/E013",
	},

	// ============================================
	// Persistence Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryPersistence,
		Message:  "Storage read failed",
		Detail:   "The storage backend could not read the snapshot.",
		DocURL:   "https://stateart.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryPersistence,
		Message:  "Storage write failed",
		Detail:   "The storage backend could not write the snapshot.",
		DocURL:   "https://stateart.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategoryPersistence,
		Message:  "Snapshot decode failed",
		Detail:   "The persisted snapshot is not valid JSON for the store state type.",
		DocURL:   "https://stateart.dev/docs/errors/E082",
	},
	"E083": {
		Category: CategoryPersistence,
		Message:  "Snapshot encode failed",
		Detail:   "The store state could not be encoded as JSON.",
		DocURL:   "https://stateart.dev/docs/errors/E083",
	},
	"E084": {
		Category: CategoryPersistence,
		Message:  "Unknown storage backend",
		Detail:   "Supported backends are memory, file, bolt, sqlite and s3.",
		DocURL:   "https://stateart.dev/docs/errors/E084",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://stateart.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No stateart.yaml, stateart.yml or stateart.json was found.",
		DocURL:   "https://stateart.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Ports must be between 0 and 65535.",
		DocURL:   "https://stateart.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid log setting",
		Detail:   "Log level must be debug, info, warn or error and format must be text or json.",
		DocURL:   "https://stateart.dev/docs/errors/E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A STATEART_* environment variable could not be parsed.",
		DocURL:   "https://stateart.dev/docs/errors/E124",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Snapshot not found",
		Detail:   "The storage backend has no snapshot for this store.",
		DocURL:   "https://stateart.dev/docs/errors/E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The devtools server stopped with an error.",
		DocURL:   "https://stateart.dev/docs/errors/E141",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
