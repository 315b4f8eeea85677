// Package config defines configuration for the notion-guardian CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (GUARDIAN_ prefix, plus the NOTION_TOKEN /
//     NOTION_SPACE_ID / NOTION_USER_ID credential variables)
//   - YAML configuration file
//
// Precedence is defaults, then file, then environment, then flags.
//
// # Structure
//
//	type Config struct {
//	    Token    string
//	    UserID   string
//	    SpaceID  string
//	    BaseURL  string
//	    Dest     string
//	    Export   ExportConfig
//	    Poll     PollConfig
//	    Mirror   MirrorConfig
//	    Progress bool
//	    Log      LogConfig
//	}
package config
