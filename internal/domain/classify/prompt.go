package classify

// Prompt is sent ahead of the statement text on every call.
const Prompt = `Analyze this bank statement and identify all recurring subscriptions or monthly charges.
Look for patterns like:
- Netflix, Spotify, Apple Music, Amazon Prime, Disney+, YouTube Premium
- Software subscriptions like Adobe, Microsoft, Dropbox, ChatGPT
- Utilities, phone bills, internet services
- Any recurring monthly or annual charges

For each subscription found, extract:
1. Service/Company name
2. Amount charged
3. Date of charge
4. Frequency (if determinable)
5. Category (streaming, software, utilities, etc.)

Return the results as JSON with the following structure:
{
    "subscriptions": [
        {
            "name": "Service Name",
            "amount": 9.99,
            "date": "2024-01-15",
            "frequency": "monthly",
            "category": "streaming",
            "confidence": 0.95
        }
    ],
    "total_monthly_cost": 99.99
}

Only return valid JSON, no additional text.`
