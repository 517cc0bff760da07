package kbin

import (
	"strconv"
	"strings"
)

// Call is a parsed request envelope:
//
//	<call model="KFC:J:A:A:2019020600"><module method="name">...</module></call>
type Call struct {
	Model  string
	Module string
	Method string
	// Body is the module element carrying the method attribute.
	Body *Node
}

// GameCode returns the model prefix before the first colon.
func (c *Call) GameCode() string {
	code, _, _ := strings.Cut(c.Model, ":")
	return code
}

// NewCall builds a request envelope with children appended to the module
// element.
func NewCall(model, module, method string, children ...*Node) *Node {
	root := NewNode("call").SetAttr("model", model)
	root.Add(NewNode(module).SetAttr("method", method).Add(children...))
	return root
}

// ParseCall reads the envelope of a request tree. The module is the
// first child of <call> carrying a method attribute.
func ParseCall(root *Node) (*Call, error) {
	if root == nil || root.Name != "call" {
		return nil, newError(PhaseDecode, KindInvalidValue, nil, "root element is not call")
	}
	for _, s := range root.Slots() {
		for _, n := range s.Nodes {
			if method, ok := n.LookupAttr("method"); ok {
				return &Call{
					Model:  root.Attr("model"),
					Module: n.Name,
					Method: method,
					Body:   n,
				}, nil
			}
		}
	}
	return nil, newError(PhaseDecode, KindInvalidValue, []string{root.Name}, "no module element with a method attribute")
}

// NewResponse builds <response><module status="N">children</module></response>.
func NewResponse(module string, status int, children ...*Node) *Node {
	body := NewNode(module).SetAttr("status", strconv.Itoa(status)).Add(children...)
	return NewNode("response").Add(body)
}
