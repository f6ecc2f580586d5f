package sink

import (
	"context"

	"github.com/amishk599/postscout/internal/model"
)

// NopSink discards every batch. Used by check mode so a trial run leaves the
// output store alone.
type NopSink struct{}

func NewNopSink() *NopSink { return &NopSink{} }

func (*NopSink) Append(context.Context, []model.Post) ([]model.Post, error) { return nil, nil }
func (*NopSink) Close() error { return nil }
