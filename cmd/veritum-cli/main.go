// Command veritum-cli is a JSON stdin/stdout conformance tool over the
// Cube core, modeled on the teacher's cmd/rubin-consensus-cli: one
// Request decoded from stdin, one Response encoded to stdout, a single
// op switch. It exists to let an external test harness exercise
// sculpt/parse/validate without depending on this module's Go API
// directly.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/errs"
	"verity.dev/core/field"
)

// Request is the single decoded shape for every op; unused fields are
// simply left zero, matching the teacher's one-struct-many-ops style.
type Request struct {
	Op string `json:"op"`

	CubeType   string `json:"cube_type,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	PayloadHex string `json:"payload_hex,omitempty"`
	NotifyHex  string `json:"notify_hex,omitempty"`
	PublicHex  string `json:"public_key_hex,omitempty"`
	PrivateHex string `json:"private_key_hex,omitempty"`

	CubeHex string `json:"cube_hex,omitempty"`
	TLV     bool   `json:"tlv,omitempty"`
}

// FieldJSON is one decoded TLV field in a parse response.
type FieldJSON struct {
	Type      uint16 `json:"type"`
	Name      string `json:"name,omitempty"`
	ValueHex  string `json:"value_hex"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	CubeHex string `json:"cube_hex,omitempty"`
	KeyHex  string `json:"key_hex,omitempty"`

	CubeType string      `json:"cube_type,omitempty"`
	Fields   []FieldJSON `json:"fields,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func errResponse(err error) Response {
	if ce, ok := err.(*errs.CubeError); ok {
		return Response{Ok: false, Err: string(ce.Kind)}
	}
	return Response{Ok: false, Err: err.Error()}
}

var cubeTypeByName = map[string]cube.Type{
	"FROZEN":        cube.Frozen,
	"FROZEN_NOTIFY": cube.FrozenNotify,
	"PIC":           cube.Pic,
	"PIC_NOTIFY":    cube.PicNotify,
	"MUC":           cube.Muc,
	"MUC_NOTIFY":    cube.MucNotify,
	"PMUC":          cube.Pmuc,
	"PMUC_NOTIFY":   cube.PmucNotify,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	switch req.Op {
	case "sculpt":
		doSculpt(req)
	case "parse":
		doParse(req)
	case "validate":
		doValidate(req)
	default:
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown op"})
	}
}

func doSculpt(req Request) {
	typ, ok := cubeTypeByName[req.CubeType]
	if !ok {
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown cube_type"})
		return
	}
	payload, err := hex.DecodeString(req.PayloadHex)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: "bad payload_hex"})
		return
	}

	def := cci.NewCubeFieldDefinition(cube.Definition(typ))
	params := cube.DraftParams{
		Type:       typ,
		Definition: def,
		Payload:    []field.Field{field.New(cci.Payload, payload)},
	}

	if typ.IsNotify() {
		notify, err := decodeFixed32(req.NotifyHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad notify_hex"})
			return
		}
		params.Notify = notify
	}
	if typ.IsSigned() {
		keys, err := decodeKeys(req.PublicHex, req.PrivateHex)
		if err != nil {
			writeResp(os.Stdout, errResponse(err))
			return
		}
		params.Keys = keys
	}

	c, err := cube.NewDraft(params)
	if err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	if err := c.Compile(context.Background(), req.Difficulty); err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	writeResp(os.Stdout, Response{
		Ok:      true,
		CubeHex: hex.EncodeToString(c.BinaryData()),
		KeyHex:  c.KeyHex(),
	})
}

func doParse(req Request) {
	c, typ, err := decodeCube(req)
	if err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	fs, err := c.Fields(req.TLV)
	if err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	def := cci.NewCubeFieldDefinition(cube.Definition(typ))
	out := make([]FieldJSON, 0, fs.Count())
	for _, f := range fs.All() {
		out = append(out, FieldJSON{
			Type:      f.Type,
			Name:      def.Name(f.Type),
			ValueHex:  hex.EncodeToString(f.Value),
			Synthetic: f.Type == cci.Remainder || f.Type == cci.RawContent,
		})
	}
	writeResp(os.Stdout, Response{
		Ok:       true,
		CubeType: typ.String(),
		KeyHex:   c.KeyHex(),
		Fields:   out,
	})
}

func doValidate(req Request) {
	c, _, err := decodeCube(req)
	if err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	if err := c.Validate(req.Difficulty); err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}
	writeResp(os.Stdout, Response{Ok: true, KeyHex: c.KeyHex()})
}

func decodeCube(req Request) (*cube.Cube, cube.Type, error) {
	buf, err := hex.DecodeString(req.CubeHex)
	if err != nil {
		return nil, 0, errs.New(errs.KindBinaryLengthError, "bad cube_hex")
	}
	if len(buf) != cube.Size {
		return nil, 0, errs.New(errs.KindBinaryLengthError, "cube_hex is not a full cube")
	}
	typ := cube.Type(buf[0])
	def := cci.NewCubeFieldDefinition(cube.Definition(typ))
	c, err := cube.FromBinary(typ, def, buf)
	if err != nil {
		return nil, 0, err
	}
	return c, typ, nil
}

func decodeFixed32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("expected 32 hex bytes")
	}
	copy(out[:], b)
	return out, nil
}

func decodeKeys(pubHex, privHex string) (*cube.Keys, error) {
	pub, err := hex.DecodeString(pubHex)
	if err != nil || len(pub) != 32 {
		return nil, errs.New(errs.KindInvalidCubeKey, "bad public_key_hex")
	}
	keys := &cube.Keys{Public: pub}
	if privHex != "" {
		priv, err := hex.DecodeString(privHex)
		if err != nil || len(priv) != 64 {
			return nil, errs.New(errs.KindInvalidCubeKey, "bad private_key_hex")
		}
		keys.Private = priv
	}
	return keys, nil
}
