package descriptions

import "sort"

// Tool names served over MCP
const (
	ExtractAnnotationsTool = "acrf_extract_annotations"
	ValidateFileTool       = "acrf_validate_file"
	SearchDirectoryTool    = "acrf_search_directory"
	ServerInfoTool         = "acrf_server_info"
)

// Tool descriptions with examples and use cases

const (
	ExtractAnnotationsDescription = `Extract the SDTM annotation records of an annotated CRF (aCRF).

**When to use:** Need the dataset/variable mapping that reviewers drew on a CRF, for define.xml authoring or annotation QC.

**What it does:** Reads every free-text annotation from page 2 on, classifies it as a main statement ("AETERM", "VSORRES when VSTESTCD = TEMP") or a supplemental one ("AESPID in SUPPAE"), resolves bare variables to their dataset through the coloured domain declarations of each page and the variable prefix, and merges everything into one record per DOMAIN-VARIABLE with the pages and where clauses it appears with.

**Examples:**
• Build a variable list: "Extract annotations from study-302-acrf.pdf"
• Define tables: "Extract annotations from acrf.pdf with tables" returns Variables, ValueLevel and Raw rows
• Cross-page layouts: "Extract annotations from acrf.pdf with orphan_scope document" lets a later declaration claim earlier bare variables

**Common workflows:**
1. QC: Validate → Extract → Review orphans in the report → Fix the aCRF
2. Define authoring: Extract with tables → Paste Variables and ValueLevel rows into the define spreadsheet

**Best practices:** Start with the default hybrid strategy. Use "page" when every page declares its domains and the prefix would mislead, "prefix" when the aCRF has no coloured declarations.`

	ValidateFileDescription = `Verify that a file is a readable PDF and count its annotations.

**When to use:** Before extracting, to make sure the file is a real aCRF and not a blank or flattened export.

**What it does:** Checks the extension, size limit and PDF structure, then reports the page count, the number of pages carrying annotations and the total annotation count.

**Examples:**
• Upload check: "Validate acrf-v2.pdf before extraction"
• Flattened export: "Validate acrf.pdf" reports "document carries no annotations" when the comments were burnt in

**Best practices:** A valid file with zero annotations will extract to an empty record list.`

	SearchDirectoryDescription = `Find PDF files in a directory with optional fuzzy search on the file name.

**When to use:** Locate the aCRF of a study when the exact file name is unknown.

**What it does:** Walks the directory (skipping hidden folders and links leaving the configured root), matches the query as a substring or word by word, and lists path, size and modification time sorted by path.

**Examples:**
• "Search for acrf 302" matches "Study-302_aCRF.pdf"
• "Search the default directory" lists every PDF within the size limit

**Best practices:** Leave the directory empty to search the configured default directory.`

	ServerInfoDescription = `Describe the server: version, default directory, limits, extraction defaults and available tools.

**When to use:** First call of a session, to learn where files live and which strategy extraction uses by default.

**Best practices:** The directory listing is cached for a few minutes; use acrf_search_directory for a fresh scan.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ExtractAnnotationsTool: ExtractAnnotationsDescription,
	ValidateFileTool:       ValidateFileDescription,
	SearchDirectoryTool:    SearchDirectoryDescription,
	ServerInfoTool:         ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
