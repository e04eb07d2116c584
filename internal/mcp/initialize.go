package mcp

const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"
	ProtocolVersion  = "2024-11-05"
)

// The initialize payload uses snake_case keys (protocol_version,
// server_info) rather than the camelCase of the reference MCP SDKs.
// Existing clients of this service depend on that casing.

//	{
//		"method": "initialize",
//		"params": {
//		  "protocol_version": "2024-11-05",
//		  "client_info": {
//			"name": "vscode",
//			"version": "0.0.1"
//		  }
//		},
//		"jsonrpc": "2.0",
//		"id": 0
//	  }
type InitializeRequest struct {
	ProtocolVersion string      `json:"protocol_version"`
	Capabilities    M           `json:"capabilities"`
	ClientInfo      *ClientInfo `json:"client_info"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

//	{
//		"jsonrpc": "2.0",
//		"id": 0,
//		"result": {
//		  "protocol_version": "2024-11-05",
//		  "capabilities": {
//			"tools": {
//			  "listChanged": false
//			},
//			"resources": {
//			  "listChanged": false
//			}
//		  },
//		  "server_info": {
//			"name": "pgmcp",
//			"version": "1.0.0"
//		  }
//		}
//	  }
type InitializeResponse struct {
	ProtocolVersion string     `json:"protocol_version"`
	Capabilities    M          `json:"capabilities"`
	ServerInfo      ServerInfo `json:"server_info"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var DefaultCapabilities = M{
	"tools":     M{"listChanged": false},
	"resources": M{"listChanged": false},
}
