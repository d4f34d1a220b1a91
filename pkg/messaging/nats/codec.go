package nats

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/plaenen/cmscore/pkg/domain"
)

// Envelope field names on the wire.
const (
	fieldID            = "id"
	fieldKind          = "kind"
	fieldAggregateType = "aggregateType"
	fieldAggregateID   = "aggregateId"
	fieldSiteID        = "siteId"
	fieldVersion       = "version"
	fieldSeconds       = "timestampSeconds"
	fieldNanos         = "timestampNanos"
	fieldData          = "data"
)

// encodeEvent serializes an event as a protobuf Struct. Payload values go
// through JSON first so any JSON compatible value is accepted.
func encodeEvent(e domain.Event) ([]byte, error) {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	data := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}

	ts := timestamppb.New(e.Timestamp)
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:            structpb.NewStringValue(e.ID),
		fieldKind:          structpb.NewStringValue(e.Kind),
		fieldAggregateType: structpb.NewStringValue(e.AggregateType),
		fieldAggregateID:   structpb.NewStringValue(e.AggregateID.String()),
		fieldSiteID:        structpb.NewStringValue(e.SiteID.String()),
		fieldVersion:       structpb.NewNumberValue(float64(e.Version)),
		fieldSeconds:       structpb.NewNumberValue(float64(ts.GetSeconds())),
		fieldNanos:         structpb.NewNumberValue(float64(ts.GetNanos())),
		fieldData:          structpb.NewStructValue(data),
	}}
	return proto.Marshal(env)
}

// decodeEvent is the inverse of encodeEvent. Numbers in the payload come
// back as float64.
func decodeEvent(b []byte) (domain.Event, error) {
	env := &structpb.Struct{}
	if err := proto.Unmarshal(b, env); err != nil {
		return domain.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	f := env.GetFields()

	aggregateID, err := uuid.Parse(f[fieldAggregateID].GetStringValue())
	if err != nil {
		return domain.Event{}, fmt.Errorf("aggregate id: %w", err)
	}
	siteID, err := uuid.Parse(f[fieldSiteID].GetStringValue())
	if err != nil {
		return domain.Event{}, fmt.Errorf("site id: %w", err)
	}
	ts := &timestamppb.Timestamp{
		Seconds: int64(f[fieldSeconds].GetNumberValue()),
		Nanos:   int32(f[fieldNanos].GetNumberValue()),
	}
	if err := ts.CheckValid(); err != nil {
		return domain.Event{}, fmt.Errorf("timestamp: %w", err)
	}

	e := domain.Event{
		ID:            f[fieldID].GetStringValue(),
		Kind:          f[fieldKind].GetStringValue(),
		AggregateType: f[fieldAggregateType].GetStringValue(),
		AggregateID:   aggregateID,
		SiteID:        siteID,
		Version:       int64(f[fieldVersion].GetNumberValue()),
		Timestamp:     ts.AsTime(),
		Data:          f[fieldData].GetStructValue().AsMap(),
	}
	if e.ID == "" || e.Kind == "" || e.AggregateType == "" {
		return domain.Event{}, fmt.Errorf("incomplete envelope for event %q", e.ID)
	}
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	return e, nil
}
