package fakegl

// Enum is a GL enumerant. Values match the OpenGL 1.x headers.
type Enum uint32

// Bitfield is a GL bit mask (Clear, PushAttrib).
type Bitfield uint32

// Capabilities for Enable, Disable and IsEnabled.
const (
	LineSmooth  Enum = 0x0B20
	CullFace    Enum = 0x0B44
	Lighting    Enum = 0x0B50
	Fog         Enum = 0x0B60
	DepthTest   Enum = 0x0B71
	AlphaTest   Enum = 0x0BC0
	Dither      Enum = 0x0BD0
	Blend       Enum = 0x0BE2
	ScissorTest Enum = 0x0C11
	Texture2D   Enum = 0x0DE1
	Light0      Enum = 0x4000
	Light1      Enum = 0x4001
	Light2      Enum = 0x4002
	Light3      Enum = 0x4003
	Light4      Enum = 0x4004
	Light5      Enum = 0x4005
	Light6      Enum = 0x4006
	Light7      Enum = 0x4007
)

// Blend factors.
const (
	Zero             Enum = 0
	One              Enum = 1
	SrcColor         Enum = 0x0300
	OneMinusSrcColor Enum = 0x0301
	SrcAlpha         Enum = 0x0302
	OneMinusSrcAlpha Enum = 0x0303
	DstAlpha         Enum = 0x0304
	OneMinusDstAlpha Enum = 0x0305
	DstColor         Enum = 0x0306
	OneMinusDstColor Enum = 0x0307
	SrcAlphaSaturate Enum = 0x0308
)

// Comparison functions for AlphaFunc and DepthFunc.
const (
	Never    Enum = 0x0200
	Less     Enum = 0x0201
	Equal    Enum = 0x0202
	Lequal   Enum = 0x0203
	Greater  Enum = 0x0204
	Notequal Enum = 0x0205
	Gequal   Enum = 0x0206
	Always   Enum = 0x0207
)

// Primitive modes for Begin.
const (
	Points        Enum = 0x0000
	Lines         Enum = 0x0001
	LineLoop      Enum = 0x0002
	LineStrip     Enum = 0x0003
	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
	TriangleFan   Enum = 0x0006
	Quads         Enum = 0x0007
	QuadStrip     Enum = 0x0008
	Polygon       Enum = 0x0009
)

// Matrix modes.
const (
	Modelview     Enum = 0x1700
	Projection    Enum = 0x1701
	TextureMatrix Enum = 0x1702
)

// Polygon state.
const (
	CW           Enum = 0x0900
	CCW          Enum = 0x0901
	Front        Enum = 0x0404
	Back         Enum = 0x0405
	FrontAndBack Enum = 0x0408
	Flat         Enum = 0x1D00
	Smooth       Enum = 0x1D01
)

// Light parameters.
const (
	Ambient           Enum = 0x1200
	Diffuse           Enum = 0x1201
	Specular          Enum = 0x1202
	Position          Enum = 0x1203
	SpotDirection     Enum = 0x1204
	SpotExponent      Enum = 0x1205
	SpotCutoff        Enum = 0x1206
	LightModelAmbient Enum = 0x0B53
)

// Texture parameters and values.
const (
	TextureWidth          Enum = 0x1000
	TextureHeight         Enum = 0x1001
	TextureInternalFormat Enum = 0x1003
	Nearest               Enum = 0x2600
	Linear                Enum = 0x2601
	NearestMipmapNearest  Enum = 0x2700
	LinearMipmapNearest   Enum = 0x2701
	NearestMipmapLinear   Enum = 0x2702
	LinearMipmapLinear    Enum = 0x2703
	TextureMagFilter      Enum = 0x2800
	TextureMinFilter      Enum = 0x2801
	TextureWrapS          Enum = 0x2802
	TextureWrapT          Enum = 0x2803
	Clamp                 Enum = 0x2900
	Repeat                Enum = 0x2901
	ClampToEdge           Enum = 0x812F
	MirroredRepeat        Enum = 0x8370
)

// Pixel formats and types.
const (
	ColorIndex   Enum = 0x1900
	Alpha        Enum = 0x1906
	RGB          Enum = 0x1907
	RGBA         Enum = 0x1908
	Luminance    Enum = 0x1909
	UnsignedByte Enum = 0x1401
	PixelColor   Enum = 0x1800 // CopyPixels type
)

// Queries for GetFloatv and GetIntegerv.
const (
	CurrentColor        Enum = 0x0B00
	MatrixMode          Enum = 0x0BA0
	ViewportParam       Enum = 0x0BA2
	ModelviewMatrix     Enum = 0x0BA6
	ProjectionMatrix    Enum = 0x0BA7
	MaxTextureSizeParam Enum = 0x0D33
	TextureBinding2D    Enum = 0x8069
)

// Display list modes.
const (
	Compile           Enum = 0x1300
	CompileAndExecute Enum = 0x1301
)

// Clear mask bits.
const (
	DepthBufferBit   Bitfield = 0x00000100
	StencilBufferBit Bitfield = 0x00000400
	ColorBufferBit   Bitfield = 0x00004000
)

// Attribute groups for PushAttrib.
const (
	CurrentBit    Bitfield = 0x00000001
	PointBit      Bitfield = 0x00000002
	LineBit       Bitfield = 0x00000004
	PolygonBit    Bitfield = 0x00000008
	LightingBit   Bitfield = 0x00000040
	FogBit        Bitfield = 0x00000080
	ViewportBit   Bitfield = 0x00000800
	TransformBit  Bitfield = 0x00001000
	EnableBit     Bitfield = 0x00002000
	ScissorBit    Bitfield = 0x00080000
	TextureBit    Bitfield = 0x00040000
	AllAttribBits Bitfield = 0xFFFFFFFF
)
