package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/dshills/typoflow/pkg/execution"
	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
)

type inputBody struct {
	TextValue   string `json:"textValue"`
	URLValue    string `json:"urlValue"`
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
}

type instructionBody struct {
	SystemInstruction string `json:"systemInstruction"`
}

type connectBody struct {
	Source graph.NodeID `json:"source"`
	Target graph.NodeID `json:"target"`
}

type edgeTypeBody struct {
	EdgeType string `json:"edgeType"`
}

type eventPayload struct {
	Type       string            `json:"type"`
	Timestamp  int64             `json:"timestamp"`
	RunID      string            `json:"runId"`
	NodeID     graph.NodeID      `json:"nodeId,omitempty"`
	EdgeID     graph.EdgeID      `json:"edgeId,omitempty"`
	Node       *graph.NodeUpdate `json:"node,omitempty"`
	Edge       *graph.EdgeUpdate `json:"edge,omitempty"`
	SnapshotID string            `json:"snapshotId,omitempty"`
	Error      string            `json:"error,omitempty"`
	Dropped    int               `json:"dropped,omitempty"`
}

func newEventPayload(e execution.Event) eventPayload {
	p := eventPayload{
		Type:       string(e.Type),
		Timestamp:  e.Timestamp.UnixMilli(),
		RunID:      e.RunID,
		NodeID:     e.NodeID,
		EdgeID:     e.EdgeID,
		Node:       e.NodeUpdate,
		Edge:       e.EdgeUpdate,
		SnapshotID: e.SnapshotID,
		Dropped:    e.Dropped,
	}
	if e.Error != nil {
		p.Error = e.Error.Error()
	}
	return p
}

func (s *Server) getGraph(c fiber.Ctx) error {
	return sendDocument(c, s.exportOrEmpty())
}

func (s *Server) exportGraph(c fiber.Ctx) error {
	c.Attachment("workflow.json")
	return sendDocument(c, s.exportOrEmpty())
}

func (s *Server) exportOrEmpty() []byte {
	data, err := s.session.Export()
	if err != nil {
		// Export only fails on a nil graph, which the session never holds.
		log.Printf("server: export failed: %v", err)
		return []byte(`{"nodes":[],"edges":[]}`)
	}
	return data
}

func (s *Server) putGraph(c fiber.Ctx) error {
	if err := s.session.Import(c.Body()); err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) resetGraph(c fiber.Ctx) error {
	s.session.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setEdgeType(c fiber.Ctx) error {
	var body edgeTypeBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.session.SetEdgeType(body.EdgeType); err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) addNode(c fiber.Ctx) error {
	var n graph.Node
	if err := json.Unmarshal(c.Body(), &n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.session.AddNode(&n); err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": n.ID})
}

func (s *Server) removeNode(c fiber.Ctx) error {
	if err := s.session.RemoveNode(graph.NodeID(c.Params("id"))); err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setInput(c fiber.Ctx) error {
	var body inputBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id := graph.NodeID(c.Params("id"))
	if err := s.session.SetInput(id, body.TextValue, body.URLValue, body.FileName, body.FileContent); err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setInstruction(c fiber.Ctx) error {
	var body instructionBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.session.SetInstruction(graph.NodeID(c.Params("id")), body.SystemInstruction); err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) connect(c fiber.Ctx) error {
	var body connectBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, err := s.session.Connect(body.Source, body.Target)
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) disconnect(c fiber.Ctx) error {
	if err := s.session.Disconnect(graph.EdgeID(c.Params("id"))); err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) runState(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"state": s.session.Engine().State().String()})
}

// startRun begins a run in the background and returns immediately. With
// ?wait=true it blocks and returns the snapshot summary instead.
func (s *Server) startRun(c fiber.Ctx) error {
	if c.Query("wait") == "true" {
		snap, err := s.session.Run(c.Context())
		if err != nil {
			return fail(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(history.Summarize(snap))
	}

	// The request context ends with the handler, so the run gets its own.
	results, err := s.session.Start(context.Background())
	if err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	go func() {
		if r := <-results; r.Err != nil {
			log.Printf("server: run failed: %v", r.Err)
		}
	}()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": "running"})
}

// streamEvents writes engine events as server-sent events until the next
// run completes or fails. Events a slow client missed are counted in the
// dropped field of the next event it receives.
func (s *Server) streamEvents(c fiber.Ctx) error {
	monitor := s.session.Engine().Events()
	events := monitor.Subscribe()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer monitor.Unsubscribe(events)
		for event := range events {
			data, err := json.Marshal(newEventPayload(event))
			if err != nil {
				log.Printf("server: encoding event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			if event.Type.Terminal() {
				return
			}
		}
	})
}

func (s *Server) listHistory(c fiber.Ctx) error {
	filter, err := history.CompileFilter(c.Query("where"))
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	snapshots, err := s.session.History().List(c.Context())
	if err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	matched, err := filter.Apply(snapshots)
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}

	summaries := make([]history.Summary, 0, len(matched))
	for _, snap := range matched {
		summaries = append(summaries, history.Summarize(snap))
	}
	return c.JSON(summaries)
}

func (s *Server) getSnapshot(c fiber.Ctx) error {
	snap, err := s.session.History().Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	return c.JSON(snap)
}

func (s *Server) restoreSnapshot(c fiber.Ctx) error {
	if _, err := s.session.Restore(c.Context(), c.Params("id")); err != nil {
		return fail(c, err, fiber.StatusInternalServerError)
	}
	return s.getGraph(c)
}
