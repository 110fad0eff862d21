// Package providers holds the multimodal model clients used to analyze
// report images. Clients are transport-thin: one outbound call per analysis,
// no retries, with the raw reply text returned verbatim to the normalizer.
package providers

import (
	"context"
	"strings"
)

// VisionClient is the outbound contract for one analysis call.
type VisionClient interface {
	// Analyze sends the report image to the model and returns its raw reply
	// text. Transport, auth, and quota failures are returned as errors and
	// must not be swallowed here.
	Analyze(ctx context.Context, image []byte, mimeType string) (string, error)

	// Name returns the provider identifier (e.g. "gemini").
	Name() string
}

// SystemPrompt frames the model as a hematology expert for every analysis.
const SystemPrompt = "You are a hematology expert. Analyze this blood test report."

// ExtractionPrompt asks for the specific hematology parameters and the JSON
// shape the normalizer expects. The model is told to return only the JSON
// object; the normalizer still brace-slices the reply in case it does not.
const ExtractionPrompt = `Extract the following information from this blood test report:

1. Patient details (name, age, gender, ID)
2. Test date
3. The following blood parameters with their values and reference ranges:
   - Hemoglobin (Hb)
   - RBC Count
   - WBC Count
   - Platelet Count
   - HCT, MCV, MCH, MCHC
   - WBC Differential (Neutrophils, Lymphocytes, etc.)

Summarize the findings in simple language. Mention if values are normal or abnormal.

Format your response as a JSON object with the following structure:
{
    "patient_details": {
        "name": "",
        "age": "",
        "gender": "",
        "id": ""
    },
    "test_date": "",
    "blood_parameters": [
        {"parameter": "Hemoglobin", "value": "", "reference_range": "", "status": "normal/abnormal"},
        ...
    ],
    "summary": [
        "Point 1",
        "Point 2",
        ...
    ],
    "disclaimer": [
        "This analysis is for informational purposes only and does not constitute medical advice.",
        "Please consult with a healthcare professional for proper medical diagnosis and treatment.",
        "Results may vary and this tool cannot substitute for laboratory testing.",
        "This report was generated using AI analysis of an uploaded image.",
        "Some values may not be accurately extracted if the image quality is poor.",
        "Always verify results with your original laboratory report."
    ]
}

Only return the JSON object without any additional text.`

// MIMEForFilename guesses the image MIME type from the filename.
// Everything that does not look like a PNG is treated as JPEG.
func MIMEForFilename(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
