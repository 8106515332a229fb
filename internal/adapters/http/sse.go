package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	sse "github.com/tmaxmax/go-sse"

	"github.com/PabloGalante/fable-engine/internal/app/story"
)

// sseFrameWriter sends turn frames over a per-request SSE session,
// flushing after every frame so narration reaches the client as the
// model produces it.
type sseFrameWriter struct {
	sess *sse.Session
}

func newSSEFrameWriter(w http.ResponseWriter, r *http.Request) (*sseFrameWriter, error) {
	sess, err := sse.Upgrade(w, r)
	if err != nil {
		return nil, fmt.Errorf("upgrade to sse: %w", err)
	}
	return &sseFrameWriter{sess: sess}, nil
}

func (f *sseFrameWriter) Send(frame story.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	msg := &sse.Message{}
	msg.AppendData(string(payload))
	if err := f.sess.Send(msg); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return f.sess.Flush()
}
