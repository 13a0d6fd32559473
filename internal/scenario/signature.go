package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"scenforge/internal/model"
)

// Fingerprint is a deterministic digest of a prototype's topology: participant
// types, behavior tags, environment, and event kinds. Parameter values are
// excluded so that two instances of the same prototype share a fingerprint.
func Fingerprint(p *model.ScenarioPrototype) string {
	var b strings.Builder
	b.WriteString(p.TemplateName)
	b.WriteByte('|')
	writeParticipant(&b, p.Ego)
	for _, npc := range p.NPCs {
		writeParticipant(&b, npc)
	}
	b.WriteString(p.Environment.Weather)
	b.WriteByte(',')
	b.WriteString(p.Environment.TimeOfDay)
	b.WriteByte(',')
	b.WriteString(p.Environment.RoadType)
	b.WriteByte('|')
	writeFloatMap(&b, p.Environment.Conditions)
	for _, ev := range p.Events {
		b.WriteString(ev.Actor)
		b.WriteByte(':')
		b.WriteString(ev.Action)
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// InstanceKey identifies an instance up to structural and parametric equality:
// same prototype topology and an exact match on the parameter vector. The
// selector collapses instances sharing a key before ranking.
func InstanceKey(inst *model.ScenarioInstance) string {
	var b strings.Builder
	b.WriteString(Fingerprint(inst.Prototype))
	b.WriteByte('|')
	writeFloatMap(&b, inst.Parameters)
	return b.String()
}

// StructuralTags lists the discrete traits of a prototype used by the
// diversity metric: vehicle types, behavior tags, weather. Sorted and
// deduplicated.
func StructuralTags(p *model.ScenarioPrototype) []string {
	set := map[string]struct{}{}
	add := func(kind, value string) {
		if value != "" {
			set[kind+":"+value] = struct{}{}
		}
	}
	add("vehicle", p.Ego.VehicleType)
	for _, tag := range p.Ego.BehaviorTags {
		add("behavior", tag)
	}
	for _, npc := range p.NPCs {
		add("vehicle", npc.VehicleType)
		for _, tag := range npc.BehaviorTags {
			add("behavior", tag)
		}
	}
	add("weather", p.Environment.Weather)
	add("time", p.Environment.TimeOfDay)
	for _, ev := range p.Events {
		add("action", ev.Action)
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func writeParticipant(b *strings.Builder, p model.ParticipantConfig) {
	b.WriteString(p.Name)
	b.WriteByte('=')
	b.WriteString(p.VehicleType)
	tags := append([]string(nil), p.BehaviorTags...)
	sort.Strings(tags)
	for _, tag := range tags {
		b.WriteByte('+')
		b.WriteString(tag)
	}
	b.WriteByte('|')
}

func writeFloatMap(b *strings.Builder, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(m[k], 'g', -1, 64))
		b.WriteByte(';')
	}
}
