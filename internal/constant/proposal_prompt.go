package constant

const (
	ProposalMaxTokens   = 7000
	ProposalTemperature = 0.7

	// ProposalPromptTemplate args: %[1]s company name, %[2]s transcript, %[3]s contact line.
	ProposalPromptTemplate = `# WRITE A PROFESSIONAL WATER TREATMENT PROPOSAL FOLLOWING THIS EXACT FORMAT

Based on this conversation:
%[2]s

## CRITICAL INSTRUCTIONS:
1. Be CONCISE and DIRECT in every section: less prose, more concrete information.
2. NEVER use placeholders such as "$X,XXX" or "[value]". INVENT specific, realistic figures.
3. Keep tables SIMPLE, three or four columns at most.
4. CALCULATE real values for every financial item, especially ROI and savings.
5. Output only the proposal, with no preamble and no code fences.

## EXACT FORMAT:

**%[1]s -- AI-Generated Wastewater Treatment Proposal**

**Important Disclaimer**
[Short disclaimer, two lines at most]

**1. Introduction to %[1]s**
[At most three short paragraphs about the company]

**2. Project Background**
| **Client Information** | **Details** |
| ------------------ | --------------- |
| **Client Name** | [specific name] |
| **Location** | [location] |
| **Industry** | [sector] |
| **Water Source** | [source] |
| **Current Water Consumption** | [X m3/day] |
| **Current Wastewater Generation** | [Y m3/day] |
| **Existing Treatment System** | [system or "No existing treatment"] |

**3. Objective of the Project**
✓ **Regulatory Compliance** -- [one specific sentence]
✓ **Cost Optimization** -- [one specific sentence]
✓ **Water Reuse** -- [one specific sentence]
✓ **Sustainability** -- [one specific sentence]

**4. Key Design Parameters**
| **Parameter** | **Current Value** | **Target Value** |
| ------------- | --------------- | ---------------- |
| **TSS (mg/L)** | [value] | [value] |
| **COD (mg/L)** | [value] | [value] |
| **BOD (mg/L)** | [value] | [value] |
| **pH** | [value] | [value] |

**5. Recommended Treatment Process**
| **Treatment Stage** | **Technology** | **Function** |
| ------------------ | ------------- | ------------ |
| **Primary** | [specific technology] | [main function] |
| **Secondary** | [specific technology] | [main function] |
| **Tertiary** | [specific technology] | [main function] |
| **Final** | [specific technology] | [main function] |

**6. Equipment Specifications**
| **Equipment** | **Capacity** | **Est. Cost (USD)** |
| ------------- | ------------ | ------------------ |
| [Equipment 1] | [capacity] | [cost] |
| [Equipment 2] | [capacity] | [cost] |
| [Equipment 3] | [capacity] | [cost] |
| [Equipment 4] | [capacity] | [cost] |

**7. Financial Summary**

**CAPEX: $[total] USD**
- Equipment: $[value] USD
- Installation: $[value] USD
- Engineering: $[value] USD

**Monthly OPEX: $[total] USD**
- Chemicals: $[value] USD
- Energy: $[value] USD
- Labor: $[value] USD
- Maintenance: $[value] USD

**8. Return on Investment Analysis**
- Current water cost: $[value] USD/month
- Projected water cost: $[value] USD/month
- Monthly savings: $[value] USD
- ROI period: [X] years

**9. Next Steps**
1. Technical validation meeting
2. Site assessment
3. Detailed engineering proposal
4. Implementation schedule

%[3]s
`

	// EmergencyProposalTemplate args: %[1]s company name, %[2]s contact line.
	EmergencyProposalTemplate = `# Wastewater Treatment Proposal

## Introduction
%[1]s presents this preliminary technical and economic proposal for industrial wastewater treatment. We design tailored treatment systems built on proven, sustainable technologies.

## Client Information
| **Field** | **Details** |
| --------- | ----------- |
| **Industry** | Industrial - Food and Beverage |
| **Current Water Consumption** | 350 m3/day |
| **Wastewater Generation** | 280 m3/day |
| **Existing Treatment System** | None |

## Objectives
✓ **Regulatory Compliance** -- Meet local discharge limits for COD, BOD and TSS.
✓ **Water Reuse** -- Recover at least 50%% of the treated flow for cleaning and cooling.

## Proposed Solution
- DAF unit sized for 400 m3/day
- MBBR biological reactor sized for 350 m3/day
- Multimedia filtration with UV disinfection

## Budget
- **Total CAPEX:** $185,000 USD
- **Monthly OPEX:** $5,800 USD
- **Estimated ROI:** 36 months

## Next Steps
1. Technical validation meeting
2. Site assessment

%[2]s
`
)
