package bean

import (
	"errors"
	"math"
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type mode string

type BeanTestSuite struct {
	suite.Suite
	coercer *Coercer
}

func (s *BeanTestSuite) SetupTest() {
	s.coercer = New()
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func (s *BeanTestSuite) TestPropertyName() {
	testCases := []struct {
		accessor string
		want     string
	}{
		{accessor: "isCool", want: "cool"},
		{accessor: "IsCool", want: "cool"},
		{accessor: "getFooBar", want: "fooBar"},
		{accessor: "GetFooBar", want: "fooBar"},
		{accessor: "GetURL", want: "uRL"},
		{accessor: "fooBar", want: "fooBar"},
		{accessor: "FooBar", want: "FooBar"},
		{accessor: "get", want: "get"},
		{accessor: "is", want: "is"},
		{accessor: "Issue", want: "Issue"},
		{accessor: "getaway", want: "getaway"},
		{accessor: "Get_x", want: "_x"},
	}

	for _, tc := range testCases {
		s.Run(tc.accessor, func() {
			s.Equal(tc.want, s.coercer.PropertyName(tc.accessor))
		})
	}
}

func (s *BeanTestSuite) TestCoerceString() {
	testCases := []struct {
		name   string
		input  string
		target reflect.Type
		want   any
	}{
		{name: "string", input: "bar", target: typeOf[string](), want: "bar"},
		{name: "int", input: "1", target: typeOf[int](), want: 1},
		{name: "negative int8", input: "-128", target: typeOf[int8](), want: int8(-128)},
		{name: "uint16", input: "65535", target: typeOf[uint16](), want: uint16(65535)},
		{name: "float64", input: "13.37", target: typeOf[float64](), want: 13.37},
		{name: "float32", input: "0.5", target: typeOf[float32](), want: float32(0.5)},
		{name: "bool true", input: "TRUE", target: typeOf[bool](), want: true},
		{name: "bool false", input: "False", target: typeOf[bool](), want: false},
		{name: "named string", input: "strict", target: typeOf[mode](), want: mode("strict")},
		{name: "duration", input: "1m30s", target: typeOf[time.Duration](), want: 90 * time.Second},
		{name: "text unmarshaler", input: "10.0.0.1", target: typeOf[netip.Addr](), want: netip.MustParseAddr("10.0.0.1")},
		{name: "any", input: "raw", target: typeOf[any](), want: "raw"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := s.coercer.CoerceString(tc.input, tc.target)
			s.Require().NoError(err)
			s.Equal(tc.want, got.Interface())
		})
	}
}

func (s *BeanTestSuite) TestCoerceStringErrors() {
	testCases := []struct {
		name   string
		input  string
		target reflect.Type
		err    error
	}{
		{name: "bool rejects yes", input: "yes", target: typeOf[bool](), err: ErrInvalidValue},
		{name: "int overflow", input: "128", target: typeOf[int8](), err: ErrInvalidValue},
		{name: "int not a number", input: "1.5", target: typeOf[int](), err: ErrInvalidValue},
		{name: "uint negative", input: "-1", target: typeOf[uint](), err: ErrInvalidValue},
		{name: "bad duration", input: "soon", target: typeOf[time.Duration](), err: ErrInvalidValue},
		{name: "struct", input: "{}", target: typeOf[struct{ A int }](), err: ErrUnsupportedConversion},
		{name: "slice", input: "a,b", target: typeOf[[]string](), err: ErrUnsupportedConversion},
		{name: "non-empty interface", input: "x", target: typeOf[error](), err: ErrUnsupportedConversion},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.coercer.CoerceString(tc.input, tc.target)
			s.ErrorIs(err, tc.err)
		})
	}
}

func (s *BeanTestSuite) TestWithConverter() {
	upper := errors.New("not upper case")
	c := New(WithConverter(func(in string) (mode, error) {
		if in != "LOUD" {
			return "", upper
		}
		return mode("loud"), nil
	}))

	got, err := Convert[mode](c, "LOUD")
	s.Require().NoError(err)
	s.Equal(mode("loud"), got)

	_, err = Convert[mode](c, "quiet")
	s.ErrorIs(err, ErrInvalidValue)

	// other coercers keep the built-in rule
	got, err = Convert[mode](s.coercer, "quiet")
	s.Require().NoError(err)
	s.Equal(mode("quiet"), got)
}

func (s *BeanTestSuite) TestWithConverterOverridesBuiltin() {
	c := New(WithConverter(func(in string) (time.Duration, error) {
		d, err := time.ParseDuration(in + "s")
		return d, err
	}))

	got, err := Convert[time.Duration](c, "5")
	s.Require().NoError(err)
	s.Equal(5*time.Second, got)
}

func (s *BeanTestSuite) TestCoerceNumber() {
	testCases := []struct {
		name   string
		input  any
		target reflect.Type
		want   any
	}{
		{name: "float to int truncates", input: 1337.9, target: typeOf[int](), want: 1337},
		{name: "int64 to int32", input: int64(42), target: typeOf[int32](), want: int32(42)},
		{name: "int64 to float64", input: int64(3), target: typeOf[float64](), want: 3.0},
		{name: "float64 to float32", input: 0.25, target: typeOf[float32](), want: float32(0.25)},
		{name: "float64 to uint8", input: 200.0, target: typeOf[uint8](), want: uint8(200)},
		{name: "any keeps value", input: 1.5, target: typeOf[any](), want: 1.5},
		{name: "max int64 is exact", input: int64(math.MaxInt64), target: typeOf[int64](), want: int64(math.MaxInt64)},
		{name: "max uint8", input: int64(255), target: typeOf[uint8](), want: uint8(255)},
		{name: "named int type", input: int64(5), target: typeOf[time.Duration](), want: time.Duration(5)},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := s.coercer.CoerceNumber(tc.input, tc.target)
			s.Require().NoError(err)
			s.Equal(tc.want, got.Interface())
		})
	}
}

func (s *BeanTestSuite) TestCoerceNumberErrors() {
	_, err := s.coercer.CoerceNumber(1.0, typeOf[string]())
	s.ErrorIs(err, ErrUnsupportedConversion)

	_, err = s.coercer.CoerceNumber(1.0, typeOf[bool]())
	s.ErrorIs(err, ErrUnsupportedConversion)

	_, err = s.coercer.CoerceNumber("1", typeOf[int]())
	s.ErrorIs(err, ErrUnsupportedConversion)

	testCases := []struct {
		name   string
		input  any
		target reflect.Type
	}{
		{name: "negative int to uint", input: int64(-1), target: typeOf[uint]()},
		{name: "negative float to uint8", input: -0.5, target: typeOf[uint8]()},
		{name: "int overflows int8", input: int64(128), target: typeOf[int8]()},
		{name: "float overflows int64", input: 1e19, target: typeOf[int64]()},
		{name: "uint64 overflows int64", input: uint64(math.MaxUint64), target: typeOf[int64]()},
		{name: "int overflows uint8", input: int64(256), target: typeOf[uint8]()},
		{name: "float overflows uint64", input: 1e20, target: typeOf[uint64]()},
		{name: "float overflows float32", input: 1e39, target: typeOf[float32]()},
		{name: "NaN as int", input: math.NaN(), target: typeOf[int]()},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.coercer.CoerceNumber(tc.input, tc.target)
			s.ErrorIs(err, ErrInvalidValue)
		})
	}
}

func (s *BeanTestSuite) TestCoerceNumberAgreesWithCoerceString() {
	// Given the same negative value as a number and as a string
	target := typeOf[uint]()

	// When
	_, numErr := s.coercer.CoerceNumber(int64(-1), target)
	_, strErr := s.coercer.CoerceString("-1", target)

	// Then both are rejected
	s.ErrorIs(numErr, ErrInvalidValue)
	s.ErrorIs(strErr, ErrInvalidValue)
}

func TestBeanSuite(t *testing.T) {
	suite.Run(t, new(BeanTestSuite))
}
