package graph

// NodeUpdate is a partial change to a node. Nil fields are left untouched;
// set fields are shallow-merged into the node and its payload. Fields that
// do not exist on the node's payload variant are ignored.
type NodeUpdate struct {
	Status         *NodeStatus `json:"status,omitempty"`
	InputData      *string     `json:"inputData,omitempty"`
	OutputData     *string     `json:"outputData,omitempty"`
	GeneratedImage *string     `json:"generatedImage,omitempty"`
	Content        *string     `json:"content,omitempty"`
	ErrorMessage   *string     `json:"errorMessage,omitempty"`
}

// StatusUpdate builds an update that only changes the status.
func StatusUpdate(s NodeStatus) NodeUpdate {
	return NodeUpdate{Status: &s}
}

// WithInput sets the received input.
func (u NodeUpdate) WithInput(v string) NodeUpdate {
	u.InputData = &v
	return u
}

// WithOutput sets the produced text output.
func (u NodeUpdate) WithOutput(v string) NodeUpdate {
	u.OutputData = &v
	return u
}

// WithImage sets the generated image payload.
func (u NodeUpdate) WithImage(v string) NodeUpdate {
	u.GeneratedImage = &v
	return u
}

// WithContent sets the display content.
func (u NodeUpdate) WithContent(v string) NodeUpdate {
	u.Content = &v
	return u
}

// WithError sets the error message. An empty message clears it.
func (u NodeUpdate) WithError(msg string) NodeUpdate {
	u.ErrorMessage = &msg
	return u
}

// Apply merges the update into n.
func (u NodeUpdate) Apply(n *Node) {
	if u.Status != nil {
		n.Status = *u.Status
	}

	switch d := n.Data.(type) {
	case *ProcessorData:
		setIf(&d.InputData, u.InputData)
		setIf(&d.OutputData, u.OutputData)
		setIf(&d.ErrorMessage, u.ErrorMessage)
	case *ImageGenData:
		setIf(&d.InputData, u.InputData)
		setIf(&d.GeneratedImage, u.GeneratedImage)
		setIf(&d.ErrorMessage, u.ErrorMessage)
	case *DisplayData:
		setIf(&d.Content, u.Content)
	}
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// EdgeUpdate is a change to an edge's transient run state.
type EdgeUpdate struct {
	Animated bool       `json:"animated"`
	Status   EdgeStatus `json:"status"`
}

// EdgeRunning is the update applied while a target subtree is processed.
func EdgeRunning() EdgeUpdate {
	return EdgeUpdate{Animated: true, Status: EdgeStatusRunning}
}

// EdgeDone is the update applied once a target subtree has completed.
func EdgeDone() EdgeUpdate {
	return EdgeUpdate{Animated: false, Status: EdgeStatusDone}
}

// EdgeReset restores the default neutral edge state.
func EdgeReset() EdgeUpdate {
	return EdgeUpdate{}
}

// Apply writes the update onto e.
func (u EdgeUpdate) Apply(e *Edge) {
	e.Animated = u.Animated
	e.Status = u.Status
}
