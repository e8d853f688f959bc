package rdf

// Triple is one subject/predicate/object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Ground reports whether no component of the triple is a variable
func (t Triple) Ground() bool {
	return IsGround(t.Subject) && IsGround(t.Predicate) && IsGround(t.Object)
}

// NTriples renders the triple as a canonical N-Triples line, without the
// trailing newline
func (t Triple) NTriples() string {
	return t.Subject.NTriples() + " " + t.Predicate.NTriples() + " " + t.Object.NTriples() + " ."
}

// Quad is a triple tagged with the identifier of the context it belongs to.
type Quad struct {
	Triple
	Context string
}

// Pattern is a triple query filter. Nil components match any term.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Matches reports whether the triple satisfies every bound component of the
// pattern
func (p Pattern) Matches(t Triple) bool {
	if p.Subject != nil && p.Subject != t.Subject {
		return false
	}
	if p.Predicate != nil && p.Predicate != t.Predicate {
		return false
	}
	return p.Object == nil || p.Object == t.Object
}

// Wildcard reports whether every component of the pattern is unbound
func (p Pattern) Wildcard() bool {
	return p.Subject == nil && p.Predicate == nil && p.Object == nil
}

// Position designates one component of a triple.
type Position int

// Triple component positions.
const (
	SubjectPosition Position = iota
	PredicatePosition
	ObjectPosition
)

// ChoicePattern is a pattern where one component matches any of a list of
// alternatives instead of a single term.
type ChoicePattern struct {
	Pattern
	Choices  []Term
	Position Position
}

// Expand returns one plain pattern per alternative
func (c ChoicePattern) Expand() []Pattern {
	patterns := make([]Pattern, 0, len(c.Choices))
	for _, alt := range c.Choices {
		p := c.Pattern
		switch c.Position {
		case SubjectPosition:
			p.Subject = alt
		case PredicatePosition:
			p.Predicate = alt
		case ObjectPosition:
			p.Object = alt
		}
		patterns = append(patterns, p)
	}
	return patterns
}
