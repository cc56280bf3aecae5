package ecs

import "reflect"

// DataType describes the shape of a component's value as seen by a GPU
// uniform: a scalar, a vector or a 4x4 matrix.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeF32
	DataTypeI32
	DataTypeU32
	DataTypeVec2
	DataTypeVec3
	DataTypeVec4
	DataTypeIVec2
	DataTypeIVec3
	DataTypeIVec4
	DataTypeUVec2
	DataTypeUVec3
	DataTypeUVec4
	DataTypeMat4
)

var dataTypeNames = [...]string{
	DataTypeNone:  "none",
	DataTypeF32:   "f32",
	DataTypeI32:   "i32",
	DataTypeU32:   "u32",
	DataTypeVec2:  "vec2",
	DataTypeVec3:  "vec3",
	DataTypeVec4:  "vec4",
	DataTypeIVec2: "ivec2",
	DataTypeIVec3: "ivec3",
	DataTypeIVec4: "ivec4",
	DataTypeUVec2: "uvec2",
	DataTypeUVec3: "uvec3",
	DataTypeUVec4: "uvec4",
	DataTypeMat4:  "mat4",
}

func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "invalid"
}

// Scalars returns the number of 32-bit scalars a value of this type holds.
func (d DataType) Scalars() int {
	switch d {
	case DataTypeF32, DataTypeI32, DataTypeU32:
		return 1
	case DataTypeVec2, DataTypeIVec2, DataTypeUVec2:
		return 2
	case DataTypeVec3, DataTypeIVec3, DataTypeUVec3:
		return 3
	case DataTypeVec4, DataTypeIVec4, DataTypeUVec4:
		return 4
	case DataTypeMat4:
		return 16
	}
	return 0
}

// inferDataType derives the data type of plain scalar and fixed array types.
// Anything else must declare its shape with IsA.
func inferDataType(t reflect.Type) DataType {
	switch t.Kind() {
	case reflect.Float32:
		return DataTypeF32
	case reflect.Int32:
		return DataTypeI32
	case reflect.Uint32:
		return DataTypeU32
	case reflect.Array:
		n := t.Len()
		switch t.Elem().Kind() {
		case reflect.Float32:
			switch n {
			case 2:
				return DataTypeVec2
			case 3:
				return DataTypeVec3
			case 4:
				return DataTypeVec4
			case 16:
				return DataTypeMat4
			}
		case reflect.Int32:
			if n >= 2 && n <= 4 {
				return DataTypeIVec2 + DataType(n-2)
			}
		case reflect.Uint32:
			if n >= 2 && n <= 4 {
				return DataTypeUVec2 + DataType(n-2)
			}
		}
	}
	return DataTypeNone
}
