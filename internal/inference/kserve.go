package inference

import (
	"fmt"
	"net/url"

	"github.com/remyxai/remyxai-cli/internal/common/netutil"
)

// Tensor names of the text-generation model signature.
const (
	inputName  = "PROMPT"
	outputName = "RESULTS"
)

type tensorInput struct {
	Name     string   `json:"name"`
	Shape    []int    `json:"shape"`
	Datatype string   `json:"datatype"`
	Data     []string `json:"data"`
}

type tensorOutputSpec struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type inferRequest struct {
	ID      string             `json:"id"`
	Inputs  []tensorInput      `json:"inputs"`
	Outputs []tensorOutputSpec `json:"outputs"`
}

type tensorOutput struct {
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
	Shape    []int  `json:"shape"`
	Data     []any  `json:"data"`
}

type inferResponse struct {
	ID           string         `json:"id"`
	ModelName    string         `json:"model_name"`
	ModelVersion string         `json:"model_version"`
	Outputs      []tensorOutput `json:"outputs"`
	Error        string         `json:"error"`
}

func newInferRequest(id, prompt string) inferRequest {
	return inferRequest{
		ID: id,
		Inputs: []tensorInput{{
			Name:     inputName,
			Shape:    []int{1},
			Datatype: "BYTES",
			Data:     []string{prompt},
		}},
		Outputs: []tensorOutputSpec{{
			Name:       outputName,
			Parameters: map[string]any{"binary_data": false},
		}},
	}
}

func inferURL(req Request) string {
	u := netutil.BaseURL(req.ServerAddress) + "/v2/models/" + url.PathEscape(req.ModelName)
	if req.ModelVersion != "" {
		u += "/versions/" + url.PathEscape(req.ModelVersion)
	}
	return u + "/infer"
}

// output extracts the first element of the RESULTS tensor.
func (r inferResponse) output() (string, error) {
	for _, o := range r.Outputs {
		if o.Name != outputName {
			continue
		}
		if len(o.Data) == 0 {
			return "", fmt.Errorf("output %s is empty", outputName)
		}
		s, ok := o.Data[0].(string)
		if !ok {
			return "", fmt.Errorf("output %s has %T data, want string", outputName, o.Data[0])
		}
		return s, nil
	}
	return "", fmt.Errorf("response has no %s output", outputName)
}
