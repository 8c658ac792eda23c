package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// RunAgent answers an admin's question about the store, calling back
// into the catalog and order book through function-calling tools.
func RunAgent(userMessage string, apiKey string) (string, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")

	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the store assistant for an Ayurvedic products shop.

	RULES:
	1. CATALOG: If a user asks for the PRICE, LOT ID or DETAILS of a product:
	   - You MUST call 'check_catalog' to get the full list.
	   - Then read the JSON to find the specific item and answer the user.

	2. PROMOTIONS: If a user asks to put a product ON SALE by NAME, do NOT ask for the Lot ID. Instead:
	   - Call 'check_catalog' to find the Lot ID.
	   - Call 'create_promotion' using that Lot ID.

	3. SALES: If the user asks for revenue or order counts, use 'get_sales_report'.

	USER: %s`, today, userMessage)

	// --- DEFINE TOOLS ---
	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_catalog",
					Description: "Get the full product catalog. Use this to find ANY product details like Lot ID, Name or Price.",
				},
				{
					Name:        "create_promotion",
					Description: "Put a product on sale by creating a time-bounded promotion on its Lot ID",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"lot_id":          {Type: genai.TypeInteger, Description: "Lot ID of the product"},
							"promo_price":     {Type: genai.TypeInteger, Description: "Promotional price in whole rupees"},
							"marketing_label": {Type: genai.TypeString, Description: "Badge text, e.g. '40% OFF'"},
							"end_date":        {Type: genai.TypeString, Description: "Last day of the sale (YYYY-MM-DD)"},
						},
						Required: []string{"lot_id", "promo_price", "marketing_label", "end_date"},
					},
				},
				{
					Name:        "get_sales_report",
					Description: "Get total order revenue and order count for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// --- HANDLE TOOL CALLS ---
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {

			// TOOL 1: Check Catalog
			if funcCall.Name == "check_catalog" {
				var products []models.Product
				database.DB.Find(&products)

				type SimpleProduct struct {
					LotID int64  `json:"lot_id"`
					Name  string `json:"name"`
					Price int64  `json:"price"`
				}
				var simpleList []SimpleProduct
				for _, p := range products {
					simpleList = append(simpleList, SimpleProduct{
						LotID: p.LotID,
						Name:  p.Name,
						Price: p.Price,
					})
				}

				jsonBytes, _ := json.Marshal(simpleList)

				toolResp := genai.FunctionResponse{
					Name:     "check_catalog",
					Response: map[string]interface{}{"catalog": string(jsonBytes)},
				}

				finalResp, err := session.SendMessage(ctx, toolResp)
				if err != nil {
					return "", err
				}

				return handleRecursiveToolCalls(ctx, session, finalResp), nil
			}

			// TOOL 2: Create Promotion
			if funcCall.Name == "create_promotion" {
				return executeCreatePromotion(ctx, session, funcCall), nil
			}

			// TOOL 3: Sales Report
			if funcCall.Name == "get_sales_report" {
				return executeSalesReport(ctx, session, funcCall), nil
			}
		}
	}

	return printResponse(resp), nil
}

// --- HELPER FUNCTIONS ---

// After a catalog lookup the model usually wants to chain straight
// into creating the promotion it was asked for.
func handleRecursiveToolCalls(ctx context.Context, session *genai.ChatSession, resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			if funcCall.Name == "create_promotion" {
				return executeCreatePromotion(ctx, session, funcCall)
			}
		}
	}
	return printResponse(resp)
}

func executeCreatePromotion(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	lotID := int64(args["lot_id"].(float64))
	promoPrice := int64(args["promo_price"].(float64))
	label := args["marketing_label"].(string)
	endDate := args["end_date"].(string)

	if _, err := time.Parse("2006-01-02", endDate); err != nil {
		return "Error: End date must be in YYYY-MM-DD format."
	}

	var count int64
	database.DB.Model(&models.Product{}).Where("lot_id = ?", lotID).Count(&count)

	msg := "Success"
	if count == 0 {
		msg = "No product with that Lot ID"
	} else {
		promo := models.ItemPromotion{
			LotID:          lotID,
			MarketingLabel: label,
			PromoPrice:     promoPrice,
			EndDate:        endDate,
		}
		database.DB.Create(&promo)
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "create_promotion",
		Response: map[string]interface{}{"status": msg, "lot_id": lotID, "promo_price": promoPrice},
	})
	return printResponse(finalResp)
}

func executeSalesReport(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	startStr := args["start_date"].(string)
	endStr := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)

	if err1 != nil || err2 != nil {
		return "Error: Dates must be in YYYY-MM-DD format."
	}
	end = end.Add(23*time.Hour + 59*time.Minute)

	report, err := database.GetSalesReport(start, end)
	if err != nil {
		return "Error calculating sales."
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name: "get_sales_report",
		Response: map[string]interface{}{
			"revenue":     report.TotalRevenue,
			"order_count": report.TotalCount,
		},
	})
	return printResponse(finalResp)
}

func printResponse(resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
