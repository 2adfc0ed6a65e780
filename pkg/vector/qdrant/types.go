package qdrant

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/cards/pkg/vector"
)

// toPointID maps a string id onto Qdrant's numeric or UUID point id.
func toPointID(id string) (*pb.PointId, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: n}}, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("point id %q is neither an integer nor a UUID", id)
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}, nil
}

// fromPointID resolves a Qdrant point id. Unresolvable ids yield "".
func fromPointID(id *pb.PointId) string {
	switch opt := id.GetPointIdOptions().(type) {
	case *pb.PointId_Num:
		return strconv.FormatUint(opt.Num, 10)
	case *pb.PointId_Uuid:
		return opt.Uuid
	default:
		return ""
	}
}

func toPayload(p vector.Payload) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(p))
	for k, v := range p {
		out[k] = toValue(v)
	}
	return out
}

func fromPayload(p map[string]*pb.Value) vector.Payload {
	out := make(vector.Payload, len(p))
	for k, v := range p {
		out[k] = fromValue(v)
	}
	return out
}

func toValue(v vector.Value) *pb.Value {
	switch v.Kind() {
	case vector.KindBool:
		b, _ := v.AsBool()
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: b}}
	case vector.KindInteger:
		i, _ := v.AsInteger()
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: i}}
	case vector.KindDouble:
		f, _ := v.AsDouble()
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}
	case vector.KindString:
		s, _ := v.AsString()
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
	case vector.KindList:
		list, _ := v.AsList()
		values := make([]*pb.Value, len(list))
		for i, item := range list {
			values[i] = toValue(item)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case vector.KindStruct:
		fields, _ := v.AsStruct()
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: toPayload(fields)}}}
	default:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
	}
}

func fromValue(v *pb.Value) vector.Value {
	switch k := v.GetKind().(type) {
	case *pb.Value_NullValue:
		return vector.NullValue()
	case *pb.Value_BoolValue:
		return vector.BoolValue(k.BoolValue)
	case *pb.Value_IntegerValue:
		return vector.IntegerValue(k.IntegerValue)
	case *pb.Value_DoubleValue:
		return vector.DoubleValue(k.DoubleValue)
	case *pb.Value_StringValue:
		return vector.StringValue(k.StringValue)
	case *pb.Value_ListValue:
		items := k.ListValue.GetValues()
		list := make([]vector.Value, len(items))
		for i, item := range items {
			list[i] = fromValue(item)
		}
		return vector.ListValue(list...)
	case *pb.Value_StructValue:
		fields := make(map[string]vector.Value, len(k.StructValue.GetFields()))
		for name, f := range k.StructValue.GetFields() {
			fields[name] = fromValue(f)
		}
		return vector.StructValue(fields)
	default:
		return vector.NullValue()
	}
}
