package texture

import "fmt"

// Format is a hardware texture format. Values match the DXGI_FORMAT
// enumeration the engine uses.
type Format int32

// Texture formats.
const (
	FormatUnknown                            Format = 0
	FormatR32G32B32A32Typeless               Format = 1
	FormatR32G32B32A32Float                  Format = 2
	FormatR32G32B32A32Uint                   Format = 3
	FormatR32G32B32A32Sint                   Format = 4
	FormatR32G32B32Typeless                  Format = 5
	FormatR32G32B32Float                     Format = 6
	FormatR32G32B32Uint                      Format = 7
	FormatR32G32B32Sint                      Format = 8
	FormatR16G16B16A16Typeless               Format = 9
	FormatR16G16B16A16Float                  Format = 10
	FormatR16G16B16A16Unorm                  Format = 11
	FormatR16G16B16A16Uint                   Format = 12
	FormatR16G16B16A16Snorm                  Format = 13
	FormatR16G16B16A16Sint                   Format = 14
	FormatR32G32Typeless                     Format = 15
	FormatR32G32Float                        Format = 16
	FormatR32G32Uint                         Format = 17
	FormatR32G32Sint                         Format = 18
	FormatR32G8X24Typeless                   Format = 19
	FormatD32FloatS8X24Uint                  Format = 20
	FormatR32FloatX8X24Typeless              Format = 21
	FormatX32TypelessG8X24Uint               Format = 22
	FormatR10G10B10A2Typeless                Format = 23
	FormatR10G10B10A2Unorm                   Format = 24
	FormatR10G10B10A2Uint                    Format = 25
	FormatR11G11B10Float                     Format = 26
	FormatR8G8B8A8Typeless                   Format = 27
	FormatR8G8B8A8Unorm                      Format = 28
	FormatR8G8B8A8UnormSrgb                  Format = 29
	FormatR8G8B8A8Uint                       Format = 30
	FormatR8G8B8A8Snorm                      Format = 31
	FormatR8G8B8A8Sint                       Format = 32
	FormatR16G16Typeless                     Format = 33
	FormatR16G16Float                        Format = 34
	FormatR16G16Unorm                        Format = 35
	FormatR16G16Uint                         Format = 36
	FormatR16G16Snorm                        Format = 37
	FormatR16G16Sint                         Format = 38
	FormatR32Typeless                        Format = 39
	FormatD32Float                           Format = 40
	FormatR32Float                           Format = 41
	FormatR32Uint                            Format = 42
	FormatR32Sint                            Format = 43
	FormatR24G8Typeless                      Format = 44
	FormatD24UnormS8Uint                     Format = 45
	FormatR24UnormX8Typeless                 Format = 46
	FormatX24TypelessG8Uint                  Format = 47
	FormatR8G8Typeless                       Format = 48
	FormatR8G8Unorm                          Format = 49
	FormatR8G8Uint                           Format = 50
	FormatR8G8Snorm                          Format = 51
	FormatR8G8Sint                           Format = 52
	FormatR16Typeless                        Format = 53
	FormatR16Float                           Format = 54
	FormatD16Unorm                           Format = 55
	FormatR16Unorm                           Format = 56
	FormatR16Uint                            Format = 57
	FormatR16Snorm                           Format = 58
	FormatR16Sint                            Format = 59
	FormatR8Typeless                         Format = 60
	FormatR8Unorm                            Format = 61
	FormatR8Uint                             Format = 62
	FormatR8Snorm                            Format = 63
	FormatR8Sint                             Format = 64
	FormatA8Unorm                            Format = 65
	FormatR1Unorm                            Format = 66
	FormatR9G9B9E5Sharedexp                  Format = 67
	FormatR8G8B8G8Unorm                      Format = 68
	FormatG8R8G8B8Unorm                      Format = 69
	FormatBC1Typeless                        Format = 70
	FormatBC1Unorm                           Format = 71
	FormatBC1UnormSrgb                       Format = 72
	FormatBC2Typeless                        Format = 73
	FormatBC2Unorm                           Format = 74
	FormatBC2UnormSrgb                       Format = 75
	FormatBC3Typeless                        Format = 76
	FormatBC3Unorm                           Format = 77
	FormatBC3UnormSrgb                       Format = 78
	FormatBC4Typeless                        Format = 79
	FormatBC4Unorm                           Format = 80
	FormatBC4Snorm                           Format = 81
	FormatBC5Typeless                        Format = 82
	FormatBC5Unorm                           Format = 83
	FormatBC5Snorm                           Format = 84
	FormatB5G6R5Unorm                        Format = 85
	FormatB5G5R5A1Unorm                      Format = 86
	FormatB8G8R8A8Unorm                      Format = 87
	FormatB8G8R8X8Unorm                      Format = 88
	FormatR10G10B10XRBiasA2Unorm             Format = 89
	FormatB8G8R8A8Typeless                   Format = 90
	FormatB8G8R8A8UnormSrgb                  Format = 91
	FormatB8G8R8X8Typeless                   Format = 92
	FormatB8G8R8X8UnormSrgb                  Format = 93
	FormatBC6HTypeless                       Format = 94
	FormatBC6HUF16                           Format = 95
	FormatBC6HSF16                           Format = 96
	FormatBC7Typeless                        Format = 97
	FormatBC7Unorm                           Format = 98
	FormatBC7UnormSrgb                       Format = 99
	FormatAYUV                               Format = 100
	FormatY410                               Format = 101
	FormatY416                               Format = 102
	FormatNV12                               Format = 103
	FormatP010                               Format = 104
	FormatP016                               Format = 105
	Format420Opaque                          Format = 106
	FormatYUY2                               Format = 107
	FormatY210                               Format = 108
	FormatY216                               Format = 109
	FormatNV11                               Format = 110
	FormatAI44                               Format = 111
	FormatIA44                               Format = 112
	FormatP8                                 Format = 113
	FormatA8P8                               Format = 114
	FormatB4G4R4A4Unorm                      Format = 115
	FormatP208                               Format = 130
	FormatV208                               Format = 131
	FormatV408                               Format = 132
	FormatSamplerFeedbackMinMipOpaque        Format = 189
	FormatSamplerFeedbackMipRegionUsedOpaque Format = 190
)

var formatNames = map[Format]string{
	FormatUnknown:                            "UNKNOWN",
	FormatR32G32B32A32Typeless:               "R32G32B32A32_TYPELESS",
	FormatR32G32B32A32Float:                  "R32G32B32A32_FLOAT",
	FormatR32G32B32A32Uint:                   "R32G32B32A32_UINT",
	FormatR32G32B32A32Sint:                   "R32G32B32A32_SINT",
	FormatR32G32B32Typeless:                  "R32G32B32_TYPELESS",
	FormatR32G32B32Float:                     "R32G32B32_FLOAT",
	FormatR32G32B32Uint:                      "R32G32B32_UINT",
	FormatR32G32B32Sint:                      "R32G32B32_SINT",
	FormatR16G16B16A16Typeless:               "R16G16B16A16_TYPELESS",
	FormatR16G16B16A16Float:                  "R16G16B16A16_FLOAT",
	FormatR16G16B16A16Unorm:                  "R16G16B16A16_UNORM",
	FormatR16G16B16A16Uint:                   "R16G16B16A16_UINT",
	FormatR16G16B16A16Snorm:                  "R16G16B16A16_SNORM",
	FormatR16G16B16A16Sint:                   "R16G16B16A16_SINT",
	FormatR32G32Typeless:                     "R32G32_TYPELESS",
	FormatR32G32Float:                        "R32G32_FLOAT",
	FormatR32G32Uint:                         "R32G32_UINT",
	FormatR32G32Sint:                         "R32G32_SINT",
	FormatR32G8X24Typeless:                   "R32G8X24_TYPELESS",
	FormatD32FloatS8X24Uint:                  "D32_FLOAT_S8X24_UINT",
	FormatR32FloatX8X24Typeless:              "R32_FLOAT_X8X24_TYPELESS",
	FormatX32TypelessG8X24Uint:               "X32_TYPELESS_G8X24_UINT",
	FormatR10G10B10A2Typeless:                "R10G10B10A2_TYPELESS",
	FormatR10G10B10A2Unorm:                   "R10G10B10A2_UNORM",
	FormatR10G10B10A2Uint:                    "R10G10B10A2_UINT",
	FormatR11G11B10Float:                     "R11G11B10_FLOAT",
	FormatR8G8B8A8Typeless:                   "R8G8B8A8_TYPELESS",
	FormatR8G8B8A8Unorm:                      "R8G8B8A8_UNORM",
	FormatR8G8B8A8UnormSrgb:                  "R8G8B8A8_UNORM_SRGB",
	FormatR8G8B8A8Uint:                       "R8G8B8A8_UINT",
	FormatR8G8B8A8Snorm:                      "R8G8B8A8_SNORM",
	FormatR8G8B8A8Sint:                       "R8G8B8A8_SINT",
	FormatR16G16Typeless:                     "R16G16_TYPELESS",
	FormatR16G16Float:                        "R16G16_FLOAT",
	FormatR16G16Unorm:                        "R16G16_UNORM",
	FormatR16G16Uint:                         "R16G16_UINT",
	FormatR16G16Snorm:                        "R16G16_SNORM",
	FormatR16G16Sint:                         "R16G16_SINT",
	FormatR32Typeless:                        "R32_TYPELESS",
	FormatD32Float:                           "D32_FLOAT",
	FormatR32Float:                           "R32_FLOAT",
	FormatR32Uint:                            "R32_UINT",
	FormatR32Sint:                            "R32_SINT",
	FormatR24G8Typeless:                      "R24G8_TYPELESS",
	FormatD24UnormS8Uint:                     "D24_UNORM_S8_UINT",
	FormatR24UnormX8Typeless:                 "R24_UNORM_X8_TYPELESS",
	FormatX24TypelessG8Uint:                  "X24_TYPELESS_G8_UINT",
	FormatR8G8Typeless:                       "R8G8_TYPELESS",
	FormatR8G8Unorm:                          "R8G8_UNORM",
	FormatR8G8Uint:                           "R8G8_UINT",
	FormatR8G8Snorm:                          "R8G8_SNORM",
	FormatR8G8Sint:                           "R8G8_SINT",
	FormatR16Typeless:                        "R16_TYPELESS",
	FormatR16Float:                           "R16_FLOAT",
	FormatD16Unorm:                           "D16_UNORM",
	FormatR16Unorm:                           "R16_UNORM",
	FormatR16Uint:                            "R16_UINT",
	FormatR16Snorm:                           "R16_SNORM",
	FormatR16Sint:                            "R16_SINT",
	FormatR8Typeless:                         "R8_TYPELESS",
	FormatR8Unorm:                            "R8_UNORM",
	FormatR8Uint:                             "R8_UINT",
	FormatR8Snorm:                            "R8_SNORM",
	FormatR8Sint:                             "R8_SINT",
	FormatA8Unorm:                            "A8_UNORM",
	FormatR1Unorm:                            "R1_UNORM",
	FormatR9G9B9E5Sharedexp:                  "R9G9B9E5_SHAREDEXP",
	FormatR8G8B8G8Unorm:                      "R8G8_B8G8_UNORM",
	FormatG8R8G8B8Unorm:                      "G8R8_G8B8_UNORM",
	FormatBC1Typeless:                        "BC1_TYPELESS",
	FormatBC1Unorm:                           "BC1_UNORM",
	FormatBC1UnormSrgb:                       "BC1_UNORM_SRGB",
	FormatBC2Typeless:                        "BC2_TYPELESS",
	FormatBC2Unorm:                           "BC2_UNORM",
	FormatBC2UnormSrgb:                       "BC2_UNORM_SRGB",
	FormatBC3Typeless:                        "BC3_TYPELESS",
	FormatBC3Unorm:                           "BC3_UNORM",
	FormatBC3UnormSrgb:                       "BC3_UNORM_SRGB",
	FormatBC4Typeless:                        "BC4_TYPELESS",
	FormatBC4Unorm:                           "BC4_UNORM",
	FormatBC4Snorm:                           "BC4_SNORM",
	FormatBC5Typeless:                        "BC5_TYPELESS",
	FormatBC5Unorm:                           "BC5_UNORM",
	FormatBC5Snorm:                           "BC5_SNORM",
	FormatB5G6R5Unorm:                        "B5G6R5_UNORM",
	FormatB5G5R5A1Unorm:                      "B5G5R5A1_UNORM",
	FormatB8G8R8A8Unorm:                      "B8G8R8A8_UNORM",
	FormatB8G8R8X8Unorm:                      "B8G8R8X8_UNORM",
	FormatR10G10B10XRBiasA2Unorm:             "R10G10B10_XR_BIAS_A2_UNORM",
	FormatB8G8R8A8Typeless:                   "B8G8R8A8_TYPELESS",
	FormatB8G8R8A8UnormSrgb:                  "B8G8R8A8_UNORM_SRGB",
	FormatB8G8R8X8Typeless:                   "B8G8R8X8_TYPELESS",
	FormatB8G8R8X8UnormSrgb:                  "B8G8R8X8_UNORM_SRGB",
	FormatBC6HTypeless:                       "BC6H_TYPELESS",
	FormatBC6HUF16:                           "BC6H_UF16",
	FormatBC6HSF16:                           "BC6H_SF16",
	FormatBC7Typeless:                        "BC7_TYPELESS",
	FormatBC7Unorm:                           "BC7_UNORM",
	FormatBC7UnormSrgb:                       "BC7_UNORM_SRGB",
	FormatAYUV:                               "AYUV",
	FormatY410:                               "Y410",
	FormatY416:                               "Y416",
	FormatNV12:                               "NV12",
	FormatP010:                               "P010",
	FormatP016:                               "P016",
	Format420Opaque:                          "420_OPAQUE",
	FormatYUY2:                               "YUY2",
	FormatY210:                               "Y210",
	FormatY216:                               "Y216",
	FormatNV11:                               "NV11",
	FormatAI44:                               "AI44",
	FormatIA44:                               "IA44",
	FormatP8:                                 "P8",
	FormatA8P8:                               "A8P8",
	FormatB4G4R4A4Unorm:                      "B4G4R4A4_UNORM",
	FormatP208:                               "P208",
	FormatV208:                               "V208",
	FormatV408:                               "V408",
	FormatSamplerFeedbackMinMipOpaque:        "SAMPLER_FEEDBACK_MIN_MIP_OPAQUE",
	FormatSamplerFeedbackMipRegionUsedOpaque: "SAMPLER_FEEDBACK_MIP_REGION_USED_OPAQUE",
}

// String returns the format name without the DXGI_FORMAT_ prefix.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// IsBlockCompressed reports whether f is one of the BC1-BC7 formats.
func (f Format) IsBlockCompressed() bool {
	return (f >= FormatBC1Typeless && f <= FormatBC5Snorm) || (f >= FormatBC6HTypeless && f <= FormatBC7UnormSrgb)
}

// BCFormat is one entry of the block compression choices offered on import.
type BCFormat struct {
	Format      Format
	Description string
}

// BCFormats lists the compression targets a user can pick. Index 0 lets the
// compressor choose.
var BCFormats = []BCFormat{
	{FormatUnknown, "Pick Best Fit"},
	{FormatBC1Unorm, "BC1 (RGBA) Low Quality Alpha"},
	{FormatBC3Unorm, "BC3 (RGBA) Medium Quality"},
	{FormatBC4Unorm, "BC4 (R8) Single-Channel Gray"},
	{FormatBC5Unorm, "BC5 (R8G8) Dual-Channel Gray"},
	{FormatBC6HUF16, "BC6 (UF16) HDR"},
	{FormatBC7Unorm, "BC7 (RGBA) High Quality"},
}

// Description returns the BC selection description for f, or its format
// name when f is not a selectable BC format.
func (f Format) Description() string {
	for _, bc := range BCFormats {
		if bc.Format == f {
			return bc.Description
		}
	}
	return f.String()
}
