package tables

import (
	"testing"

	"github.com/npillmayer/otcodec/otread"
	"github.com/npillmayer/otcodec/otwrite"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// GdefSuite builds GDEF tables of growing version and parses them back.
type GdefSuite struct {
	suite.Suite
	classDef *otwrite.Table
	coverage *otwrite.Table
}

func (s *GdefSuite) SetupTest() {
	s.classDef = otwrite.NewFormat(ClassDef, 1).
		Set("startGlyphID", 1).
		Set("classValueArray", []uint16{3, 3, 1})
	s.coverage = otwrite.NewFormat(Coverage, 1).
		Set("glyphArray", []uint16{40, 41})
}

func (s *GdefSuite) roundTrip(tab *otwrite.Table) otread.TableRef {
	out, err := otwrite.Serialize(tab)
	s.Require().NoError(err, "expected GDEF to serialize")
	ref, err := otread.Read(out, 0, Gdef, nil)
	s.Require().NoError(err, "expected GDEF to parse")
	return ref
}

func (s *GdefSuite) TestBaseVersion() {
	ref := s.roundTrip(otwrite.New(Gdef).Set("glyphClassDef", s.classDef))
	s.EqualValues(GdefVersion10, ref.Version(), "expected no promotion without optional fields")
	s.False(ref.Has("markGlyphSetsDef"), "expected the 1.2 field to be absent")
	s.False(ref.Has("itemVarStore"), "expected the 1.3 field to be absent")

	cd, err := ref.Offset("glyphClassDef")
	s.Require().NoError(err)
	cls, err := GlyphClass(cd, 2)
	s.NoError(err)
	s.EqualValues(3, cls, "expected glyph 2 in class 3")

	_, ok, err := ref.OptOffset("attachList")
	s.NoError(err)
	s.False(ok, "expected the unpopulated attach list to be absent")
}

func (s *GdefSuite) TestPromotionToMarkGlyphSets() {
	sets := otwrite.New(MarkGlyphSets).
		Set("coverages", []*otwrite.Table{s.coverage})
	ref := s.roundTrip(otwrite.New(Gdef).
		Set("glyphClassDef", s.classDef).
		Set("markGlyphSetsDef", sets))
	s.EqualValues(GdefVersion12, ref.Version(), "expected promotion to 1.2, not 1.3")
	s.True(ref.Has("markGlyphSetsDef"))
	s.False(ref.Has("itemVarStore"), "expected promotion to stop at 1.2")

	mgs, err := ref.Offset("markGlyphSetsDef")
	s.Require().NoError(err)
	covs, err := mgs.Array("coverages")
	s.Require().NoError(err)
	s.Equal(1, covs.Len())
	cov, err := covs.Offset(0)
	s.Require().NoError(err)
	idx, ok, err := GlyphCovered(cov, 41)
	s.NoError(err)
	s.True(ok, "expected glyph 41 in the mark set coverage")
	s.Equal(1, idx)
}

func (s *GdefSuite) TestPromotionToItemVarStore() {
	ivs := otwrite.New(ItemVariationStore).
		Set("data", []byte{0x01, 0x02, 0x03})
	ref := s.roundTrip(otwrite.New(Gdef).
		Set("glyphClassDef", s.classDef).
		Set("itemVarStore", ivs))
	s.EqualValues(GdefVersion13, ref.Version(), "expected promotion to 1.3")
	s.True(ref.Has("markGlyphSetsDef"), "expected the 1.2 slot to exist at 1.3")

	_, ok, err := ref.OptOffset("markGlyphSetsDef")
	s.NoError(err)
	s.False(ok, "expected the unpopulated 1.2 slot to be null")

	store, err := ref.Offset("itemVarStore")
	s.Require().NoError(err)
	data, err := store.FieldBytes("data")
	s.NoError(err)
	s.Equal([]byte{0x01, 0x02, 0x03}, data)
}

func (s *GdefSuite) TestPromotionIsDeterministic() {
	build := func() *otwrite.Table {
		return otwrite.New(Gdef).
			Set("glyphClassDef", otwrite.NewFormat(ClassDef, 1).
				Set("startGlyphID", 1).
				Set("classValueArray", []uint16{3, 3, 1})).
			Set("markGlyphSetsDef", otwrite.New(MarkGlyphSets).
				Set("coverages", []*otwrite.Table{
					otwrite.NewFormat(Coverage, 1).Set("glyphArray", []uint16{40, 41}),
				}))
	}
	a, err := otwrite.Serialize(build())
	s.Require().NoError(err)
	b, err := otwrite.Serialize(build())
	s.Require().NoError(err)
	s.Equal(a, b, "expected equal graphs to serialize identically")
}

func (s *GdefSuite) TestAttachListNesting() {
	attach := otwrite.New(AttachList).
		Set("coverage", s.coverage).
		Set("attachPoints", []*otwrite.Table{
			otwrite.New(AttachPoint).Set("pointIndices", []uint16{0, 4}),
			otwrite.New(AttachPoint).Set("pointIndices", []uint16{2}),
		})
	ref := s.roundTrip(otwrite.New(Gdef).
		Set("glyphClassDef", s.classDef).
		Set("attachList", attach))
	s.EqualValues(GdefVersion10, ref.Version(), "expected no promotion for version 1.0 fields")

	al, err := ref.Offset("attachList")
	s.Require().NoError(err)
	points, err := al.Array("attachPoints")
	s.Require().NoError(err)
	s.Require().Equal(2, points.Len())
	p0, err := points.Offset(0)
	s.Require().NoError(err)
	idx, err := p0.Array("pointIndices")
	s.Require().NoError(err)
	s.Equal(2, idx.Len())
	v, err := idx.U16(1)
	s.NoError(err)
	s.EqualValues(4, v)
}

func TestGdefSuite(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	suite.Run(t, new(GdefSuite))
}
