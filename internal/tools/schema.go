package tools

// Tool groups. File tools edit the turn's workspace; profile tools query the
// profile store.
const (
	GroupFiles    = "files"
	GroupProfiles = "profiles"
)

// Schema describes a tool for JSON schema/tool-calling.
type Schema struct {
	Name        string        `json:"name"`
	Group       string        `json:"group"`
	Description string        `json:"description"`
	Parameters  []SchemaField `json:"parameters"`
}

// SchemaField describes a single parameter.
type SchemaField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// JSONSchema renders the parameters as a JSON schema object.
func (s Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Parameters))
	required := make([]string, 0, len(s.Parameters))
	for _, f := range s.Parameters {
		prop := map[string]interface{}{"type": f.Type}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

var fileSchemas = []Schema{
	{
		Name:        "write_file",
		Group:       GroupFiles,
		Description: "Create or fully replace a file in the current project",
		Parameters: []SchemaField{
			{Name: "path", Type: "string", Description: "Relative file path, e.g. index.html", Required: true},
			{Name: "content", Type: "string", Description: "Complete file content", Required: true},
		},
	},
	{
		Name:        "edit_file",
		Group:       GroupFiles,
		Description: "Replace an exact snippet of an existing file",
		Parameters: []SchemaField{
			{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			{Name: "search", Type: "string", Description: "Existing text to find", Required: true},
			{Name: "replace", Type: "string", Description: "Replacement text", Required: true},
		},
	},
	{
		Name:        "read_file",
		Group:       GroupFiles,
		Description: "Read a file from the current project",
		Parameters: []SchemaField{
			{Name: "path", Type: "string", Description: "Relative file path", Required: true},
		},
	},
	{
		Name:        "list_files",
		Group:       GroupFiles,
		Description: "List the files in the current project",
		Parameters:  []SchemaField{},
	},
}

var profileSchemas = []Schema{
	{
		Name:        "search_profiles",
		Group:       GroupProfiles,
		Description: "Search people by name, bio text, or skills",
		Parameters: []SchemaField{
			{Name: "query", Type: "string", Description: "Case-insensitive text matched against name and bio"},
			{Name: "skills", Type: "string", Description: "Comma separated skills; any match counts"},
		},
	},
	{
		Name:        "get_profile",
		Group:       GroupProfiles,
		Description: "Fetch a single profile by id",
		Parameters: []SchemaField{
			{Name: "id", Type: "string", Description: "Profile id", Required: true},
		},
	},
	{
		Name:        "request_meeting",
		Group:       GroupProfiles,
		Description: "Send an appointment, quote, or meeting request to a profile",
		Parameters: []SchemaField{
			{Name: "profile_id", Type: "string", Required: true},
			{Name: "request_type", Type: "string", Required: true, Enum: []string{"appointment", "quote", "meeting"}},
			{Name: "message", Type: "string", Required: true},
			{Name: "requester_name", Type: "string", Required: true},
			{Name: "requester_email", Type: "string", Required: true},
			{Name: "preferred_time", Type: "string", Description: "Free-form preferred time"},
		},
	},
}
