package placement

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"hrwplace/internal/member"
)

// Field names of the member struct on the wire.
const (
	fieldID       = "id"
	fieldAddr     = "addr"
	fieldWeight   = "weight"
	fieldKey      = "key"
	fieldN        = "n"
	fieldMembers  = "members"
	fieldChecksum = "checksum"
)

// memberToProto converts a member to its wire struct.
func memberToProto(m member.Member) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldID:     structpb.NewStringValue(m.ID()),
			fieldAddr:   structpb.NewStringValue(m.Addr()),
			fieldWeight: structpb.NewNumberValue(float64(m.Weight())),
		},
	}
}

// protoToMember converts a wire struct to a member. A missing weight means
// member.DefaultWeight.
func protoToMember(pb *structpb.Struct) (member.Member, error) {
	fields := pb.GetFields()
	id := fields[fieldID].GetStringValue()
	addr := fields[fieldAddr].GetStringValue()

	weight := member.DefaultWeight
	if v, ok := fields[fieldWeight]; ok {
		w, err := toInt(v.GetNumberValue())
		if err != nil {
			return member.Member{}, fmt.Errorf("weight: %w", err)
		}
		weight = w
	}
	return member.New(id, addr, weight), nil
}

// membersToProto converts members to a list value.
func membersToProto(members []member.Member) *structpb.Value {
	values := make([]*structpb.Value, 0, len(members))
	for _, m := range members {
		values = append(values, structpb.NewStructValue(memberToProto(m)))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// protoToMembers converts the members field of a response.
func protoToMembers(pb *structpb.Struct) ([]member.Member, error) {
	values := pb.GetFields()[fieldMembers].GetListValue().GetValues()
	members := make([]member.Member, 0, len(values))
	for _, v := range values {
		m, err := protoToMember(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// toInt converts a JSON number to an int, rejecting fractions and values
// outside 32-bit range. member.MaxWeight is the upper bound of that range.
func toInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(f), nil
}
