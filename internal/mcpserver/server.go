// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the bound resources as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/flatrest/internal/apperr"
	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
)

// UsageURI is the MCP resource that serves UsageContract.
const UsageURI = "flatrest://usage"

// Server wraps the MCP server with record tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *resource.Catalog
	schemas schema.Registry
}

// New creates a new MCP server with all record tools registered.
func New(catalog *resource.Catalog, schemas schema.Registry) *Server {
	s := &Server{catalog: catalog, schemas: schemas}

	s.mcp = server.NewMCPServer(
		"flatrest",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List the resource names bound at startup, one per line."),
	), s.listResources)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List one page of records of a resource, wrapped in the pagination envelope."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name (e.g. devices)")),
		mcp.WithNumber("page", mcp.Description("Page number, default 1")),
		mcp.WithNumber("per_page", mcp.Description("Page size, default 10, max 100")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read one record by id."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Create a record. The id is assigned by the server. "+
			"The record is validated against the resource schema; read it first with get_schema "+
			"or the "+UsageURI+" resource."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name")),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object with the record fields")),
	), s.createRecord)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Replace the fields of a record. The id never changes and required fields may be omitted."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object with the new record fields")),
	), s.updateRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a record and return it."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.deleteRecord)

	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Return the JSON Schema that governs a resource, if one is defined."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Resource name")),
	), s.getSchema)

	s.mcp.AddResource(
		mcp.NewResource(UsageURI, "Usage Contract",
			mcp.WithResourceDescription("How records, ids, validation and pagination behave."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readUsageResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.catalog.Names()
	if len(names) == 0 {
		return mcp.NewToolResultText("no resources bound"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, errResult := s.service(req)
	if errResult != nil {
		return errResult, nil
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.GetInt("page", resource.DefaultPage)))
	q.Set("per_page", strconv.Itoa(req.GetInt("per_page", resource.DefaultPerPage)))

	env, err := svc.List(ctx, q, "/"+svc.Name())
	return result(env, err)
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, errResult := s.service(req)
	if errResult != nil {
		return errResult, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result(svc.Get(ctx, id))
}

func (s *Server) createRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, errResult := s.service(req)
	if errResult != nil {
		return errResult, nil
	}
	record, err := req.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result(svc.Create(ctx, []byte(record)))
}

func (s *Server) updateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, errResult := s.service(req)
	if errResult != nil {
		return errResult, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := req.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result(svc.Update(ctx, id, []byte(record)))
}

func (s *Server) deleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, errResult := s.service(req)
	if errResult != nil {
		return errResult, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result(svc.Delete(ctx, id))
}

func (s *Server) getSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resource.ValidateName(name) != nil {
		return mcp.NewToolResultError("Schema not found"), nil
	}
	doc, ok, err := s.schemas.Lookup(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("Schema not found"), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func (s *Server) readUsageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      UsageURI,
			MIMEType: "text/markdown",
			Text:     UsageContract,
		},
	}, nil
}

// service resolves the "resource" argument to a bound service.
func (s *Server) service(req mcp.CallToolRequest) (*resource.Service, *mcp.CallToolResult) {
	name, err := req.RequireString("resource")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	svc, ok := s.catalog.Get(name)
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("unknown resource: %s", name))
	}
	return svc, nil
}

// result renders an envelope, or the client-facing text of err.
func result(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(clientText(err)), nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func clientText(err error) string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve.Detail
	}
	var msg *apperr.Message
	if errors.As(err, &msg) {
		return msg.Text
	}
	return "internal error"
}
